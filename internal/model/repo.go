package model

import (
	"context"
	"time"

	"luvv/internal/entity/common"
	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 模板库
	CreateTemplates(ctx context.Context, templates []db.MessageTemplate) error
	ListRecentTemplates(ctx context.Context, relationship, tone string, limit int) ([]db.MessageTemplate, error)
	ListAnyTemplates(ctx context.Context, limit int) ([]db.MessageTemplate, error)
	CountTemplates(ctx context.Context) (int64, error)
	CountTemplatesBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountTemplatesByRelationship(ctx context.Context) ([]dto.RelationshipCount, error)

	// 使用记录
	CreateUsageLog(ctx context.Context, entry *db.UsageLog) error
	CountUsageSince(ctx context.Context, modelName, status string, since time.Time) (int64, error)
	CountUsageByStatusSince(ctx context.Context, status string, since time.Time) (int64, error)
	ListUsageLogs(ctx context.Context, params *dto.UsageLogQuery) ([]db.UsageLog, *common.Meta, error)

	// 访问统计
	CreateSiteVisit(ctx context.Context) error
	CountSiteVisits(ctx context.Context, from, to time.Time) (int64, error)

	// 轮询游标
	AdvanceCursor(ctx context.Context, name string) (int64, error)

	Close() error
}
