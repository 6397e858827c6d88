package geo

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"
)

var cities = []Position{
	{Latitude: 30.2672, Longitude: -97.7431, City: "Austin", Region: "Texas"},
	{Latitude: 41.5868, Longitude: -93.6250, City: "Des Moines", Region: "Iowa"},
	{Latitude: 38.5816, Longitude: -121.4944, City: "Sacramento", Region: "California"},
	{Latitude: 35.4676, Longitude: -97.5164, City: "Oklahoma City", Region: "Oklahoma"},
}

type mockClient struct {
	mu        sync.Mutex
	delay     time.Duration
	rng       *rand.Rand
	available bool
}

// NewMock simulates the browser geolocation API. available=false reproduces
// an unsupported or permission-denied device.
func NewMock(delay time.Duration, rng *rand.Rand, available bool) Client {
	return &mockClient{delay: delay, rng: rng, available: available}
}

func (m *mockClient) Detect() (*Position, error) {
	time.Sleep(m.delay)
	if !m.available {
		return nil, ErrUnavailable
	}
	m.mu.Lock()
	p := cities[m.rng.Intn(len(cities))]
	m.mu.Unlock()
	return &p, nil
}

// Synthesize derives stable coordinates for a manually entered city, so the
// same input always lands on the same spot. Latitude stays in [-60,60] to
// avoid the poles.
func Synthesize(city, region string) Position {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(city))))
	h.Write([]byte("|"))
	h.Write([]byte(strings.ToLower(strings.TrimSpace(region))))
	v := h.Sum64()
	lat := float64(v%120000)/1000.0 - 60.0
	lon := float64((v/120000)%360000)/1000.0 - 180.0
	return Position{Latitude: lat, Longitude: lon, City: strings.TrimSpace(city), Region: strings.TrimSpace(region)}
}
