package entities

import "time"

type ReportExport struct {
	ExportID    uint   `gorm:"primaryKey" json:"export_id"`
	SessionID   string `gorm:"index" json:"session_id"`
	Channel     string `json:"channel"` // download|share|email
	Destination string `json:"destination,omitempty"`
	ShareID     string `json:"share_id,omitempty"`
	Status      string `json:"status"` // ok|failed
	CreatedAt   time.Time
}
