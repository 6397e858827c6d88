package geo

import "errors"

// ErrUnavailable covers both "no geolocation capability" and "permission
// denied" — the caller reacts the same way to either.
var ErrUnavailable = errors.New("geolocation unavailable or denied")

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Region    string  `json:"region,omitempty"`
}

type Client interface {
	Detect() (*Position, error)
}
