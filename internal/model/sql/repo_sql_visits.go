package sql

import (
	"context"
	"time"

	"luvv/internal/entity/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateSiteVisit records one visit.
func (r *GormRepository) CreateSiteVisit(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&db.SiteVisit{}).Error
}

// CountSiteVisits counts visits in [from, to).
func (r *GormRepository) CountSiteVisits(ctx context.Context, from, to time.Time) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	var total int64
	err := r.db.WithContext(ctx).
		Model(&db.SiteVisit{}).
		Where("created_at >= ? AND created_at < ?", storedTime(from), storedTime(to)).
		Count(&total).Error
	return total, err
}

// AdvanceCursor increments the named cursor and returns its new position.
func (r *GormRepository) AdvanceCursor(ctx context.Context, name string) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}

	var position int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&db.RotationCursor{Name: name}).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.RotationCursor{}).
			Where("name = ?", name).
			Update("position", gorm.Expr("position + ?", 1)).Error; err != nil {
			return err
		}
		var cursor db.RotationCursor
		if err := tx.Where("name = ?", name).First(&cursor).Error; err != nil {
			return err
		}
		position = cursor.Position
		return nil
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}
