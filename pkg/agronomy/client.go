package agronomy

import "soilscan/pkg/weather"

type Suggestion struct {
	Name        string  `json:"name"`
	Suitability float64 `json:"suitability"` // percent
	Season      string  `json:"season"`
	Reason      string  `json:"reason"`
	Detail      string  `json:"detail"`
}

// Client ranks crops for a soil class under the given weather snapshot.
type Client interface {
	Recommend(soilType string, w *weather.Snapshot) ([]Suggestion, error)
}
