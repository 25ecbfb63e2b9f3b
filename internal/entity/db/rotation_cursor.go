package db

import "time"

// RotationCursor persists the round-robin position shared by every gateway instance.
type RotationCursor struct {
	Name      string    `gorm:"column:name;type:varchar(128);primaryKey" json:"name"`
	Position  int64     `gorm:"column:position;not null;default:0" json:"position"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RotationCursor) TableName() string {
	return "rotation_cursor"
}
