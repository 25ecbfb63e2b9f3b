package sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"luvv/internal/entity/common"
	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
)

// CreateUsageLog appends a ledger entry.
func (r *GormRepository) CreateUsageLog(ctx context.Context, entry *db.UsageLog) error {
	if err := r.ready(); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("usage log is nil")
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// CountUsageSince counts ledger entries for one model and status created at or after since.
func (r *GormRepository) CountUsageSince(ctx context.Context, modelName, status string, since time.Time) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	var total int64
	err := r.db.WithContext(ctx).
		Model(&db.UsageLog{}).
		Where("model_name = ? AND status = ? AND created_at >= ?", modelName, status, storedTime(since)).
		Count(&total).Error
	return total, err
}

// CountUsageByStatusSince counts ledger entries of any model with the given status.
func (r *GormRepository) CountUsageByStatusSince(ctx context.Context, status string, since time.Time) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	var total int64
	err := r.db.WithContext(ctx).
		Model(&db.UsageLog{}).
		Where("status = ? AND created_at >= ?", status, storedTime(since)).
		Count(&total).Error
	return total, err
}

// ListUsageLogs retrieves paginated ledger entries, newest first.
func (r *GormRepository) ListUsageLogs(ctx context.Context, params *dto.UsageLogQuery) ([]db.UsageLog, *common.Meta, error) {
	if err := r.ready(); err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).Model(&db.UsageLog{})
	if params != nil {
		if trimmed := strings.TrimSpace(params.Model); trimmed != "" {
			query = query.Where("model_name = ?", trimmed)
		}
		if trimmed := strings.ToLower(strings.TrimSpace(params.Status)); trimmed != "" && trimmed != "all" {
			query = query.Where("status = ?", trimmed)
		}
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	page := 1
	pageSize := 20
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var records []db.UsageLog
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(totalCount, page, pageSize)
	return records, meta, nil
}
