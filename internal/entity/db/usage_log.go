package db

import "time"

const (
	UsageStatusSuccess  = "success"
	UsageStatusFailure  = "failure"
	UsageStatusFallback = "fallback"
)

// UsageLog is one terminal generation outcome for a provider.
type UsageLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ModelName string `gorm:"column:model_name;type:varchar(128);index" json:"model_name"`
	Status    string `gorm:"column:status;type:varchar(32);index" json:"status"`
	RequestID string `gorm:"column:request_id;type:varchar(64)" json:"request_id"`
}

// TableName 指定表名
func (UsageLog) TableName() string {
	return "ai_usage_logs"
}
