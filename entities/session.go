package entities

import "time"

// Status values for the async workflow slots (weather/soil/crops).
const (
	StatusAbsent  = "absent"
	StatusLoading = "loading"
	StatusPresent = "present"
)

type Session struct {
	SessionID string `gorm:"primaryKey" json:"session_id"`

	ImageName  string `json:"image_name,omitempty"`
	ImageMIME  string `json:"image_mime,omitempty"`
	ImageSize  int64  `json:"image_size,omitempty"`
	PreviewRef string `json:"preview_ref,omitempty"`

	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	City            string   `json:"city,omitempty"`
	Region          string   `json:"region,omitempty"`
	LocationSrc     string   `json:"location_src,omitempty"` // device|manual
	ManualPanelOpen bool     `json:"manual_panel_open"`

	WeatherStatus string     `json:"weather_status"` // absent|loading|present
	TemperatureC  *float64   `json:"temperature_c,omitempty"`
	HumidityPct   *float64   `json:"humidity_pct,omitempty"`
	PrecipMM      *float64   `json:"precip_mm,omitempty"`
	WeatherDesc   string     `json:"weather_desc,omitempty"`
	WeatherLat    *float64   `json:"weather_lat,omitempty"`
	WeatherLon    *float64   `json:"weather_lon,omitempty"`
	WeatherAt     *time.Time `json:"weather_at,omitempty"`

	SoilStatus string   `json:"soil_status"` // absent|loading|present
	SoilType   string   `json:"soil_type,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	SoilDesc   string   `json:"soil_desc,omitempty"`
	SoilColor  string   `json:"soil_color,omitempty"`

	CropsStatus string           `json:"crops_status"` // absent|loading|present
	Crops       []CropSuggestion `gorm:"foreignKey:SessionID" json:"crops"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Session) HasImage() bool    { return s.PreviewRef != "" }
func (s *Session) HasLocation() bool { return s.Latitude != nil && s.Longitude != nil }

type CropSuggestion struct {
	CropID      uint    `gorm:"primaryKey" json:"crop_id"`
	SessionID   string  `gorm:"index" json:"session_id"`
	Name        string  `json:"name"`
	Suitability float64 `json:"suitability"`
	Season      string  `json:"season"`
	Reason      string  `json:"reason"`
	Detail      string  `json:"detail"`
	Saved       bool    `json:"saved"`
	Compare     bool    `json:"compare"`

	// Not persisted: article refs attached by the recommender for the response.
	Articles []ArticleRef `gorm:"-" json:"articles,omitempty"`

	CreatedAt time.Time
}

type ArticleRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
