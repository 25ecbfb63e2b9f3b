package db

import "time"

// MessageTemplate is a generated greeting stored with [RECIPIENT]/[SENDER] placeholders.
// Rows are append-only and double as the cache and the safety-net reservoir.
type MessageTemplate struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Relationship string `gorm:"column:relationship;type:varchar(64);index:idx_message_library_scope" json:"relationship"`
	Tone         string `gorm:"column:tone;type:varchar(64);index:idx_message_library_scope" json:"tone"`
	MessageText  string `gorm:"column:message_text;type:text" json:"message_text"`
	Provider     string `gorm:"column:provider;type:varchar(128)" json:"provider"`
}

// TableName 指定表名
func (MessageTemplate) TableName() string {
	return "message_library"
}
