package entities

import "time"

type Notification struct {
	NoteID    uint   `gorm:"primaryKey" json:"note_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `gorm:"index" json:"read"`
	CreatedAt time.Time
}

// ShellSettings is keyed by the client cookie id so each browser keeps its own
// preferences. Committed only on explicit save.
type ShellSettings struct {
	ClientID      string `gorm:"primaryKey" json:"client_id"`
	WeatherAlerts bool   `json:"weather_alerts"`
	UpdatedAt     time.Time
}
