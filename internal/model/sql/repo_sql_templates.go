package sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
)

// CreateTemplates inserts generated templates in one batch.
func (r *GormRepository) CreateTemplates(ctx context.Context, templates []db.MessageTemplate) error {
	if err := r.ready(); err != nil {
		return err
	}
	if len(templates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&templates).Error
}

// ListRecentTemplates returns the newest templates for a relationship and tone.
func (r *GormRepository) ListRecentTemplates(ctx context.Context, relationship, tone string, limit int) ([]db.MessageTemplate, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(relationship) == "" || strings.TrimSpace(tone) == "" {
		return nil, fmt.Errorf("relationship and tone are required")
	}

	var rows []db.MessageTemplate
	err := r.db.WithContext(ctx).
		Where("relationship = ? AND tone = ?", relationship, tone).
		Order("created_at DESC, id DESC").
		Limit(normaliseLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return rows, nil
}

// ListAnyTemplates returns the newest templates regardless of relationship and tone.
func (r *GormRepository) ListAnyTemplates(ctx context.Context, limit int) ([]db.MessageTemplate, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	var rows []db.MessageTemplate
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(normaliseLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return rows, nil
}

// CountTemplates returns the size of the message library.
func (r *GormRepository) CountTemplates(ctx context.Context) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	var total int64
	err := r.db.WithContext(ctx).Model(&db.MessageTemplate{}).Count(&total).Error
	return total, err
}

// CountTemplatesBetween counts templates created in [from, to).
func (r *GormRepository) CountTemplatesBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	var total int64
	err := r.db.WithContext(ctx).
		Model(&db.MessageTemplate{}).
		Where("created_at >= ? AND created_at < ?", storedTime(from), storedTime(to)).
		Count(&total).Error
	return total, err
}

// CountTemplatesByRelationship groups the library by relationship, largest first.
func (r *GormRepository) CountTemplatesByRelationship(ctx context.Context) ([]dto.RelationshipCount, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	var rows []dto.RelationshipCount
	err := r.db.WithContext(ctx).
		Model(&db.MessageTemplate{}).
		Select("relationship, COUNT(*) AS count").
		Group("relationship").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group templates: %w", err)
	}
	return rows, nil
}

func normaliseLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}
