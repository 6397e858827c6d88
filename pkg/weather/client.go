package weather

// Snapshot is the weather at the coordinates it was fetched for. It is tied
// to fetch-time: a later location change does not invalidate it.
type Snapshot struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	PrecipMM     float64 `json:"precip_mm"`
	Description  string  `json:"description"`
}

type Client interface {
	Fetch(lat, lon float64) (*Snapshot, error)
}
