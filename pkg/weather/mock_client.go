package weather

import (
	"math/rand"
	"sync"
	"time"
)

var descriptions = []string{"Clear sky", "Partly cloudy", "Overcast", "Light rain"}

type mockClient struct {
	mu    sync.Mutex
	delay time.Duration
	rng   *rand.Rand
}

// NewMock generates snapshots in fixed ranges: temperature [15,35) C,
// humidity [40,90) %, precipitation [0,20) mm.
func NewMock(delay time.Duration, rng *rand.Rand) Client {
	return &mockClient{delay: delay, rng: rng}
}

func (m *mockClient) Fetch(lat, lon float64) (*Snapshot, error) {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Snapshot{
		TemperatureC: 15 + m.rng.Float64()*20,
		HumidityPct:  40 + m.rng.Float64()*50,
		PrecipMM:     m.rng.Float64() * 20,
		Description:  descriptions[m.rng.Intn(len(descriptions))],
	}, nil
}
