package db

import "time"

// SiteVisit records one landing on the wizard.
type SiteVisit struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (SiteVisit) TableName() string {
	return "site_visits"
}
