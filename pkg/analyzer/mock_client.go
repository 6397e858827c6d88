package analyzer

import (
	"math/rand"
	"sync"
	"time"
)

// The four soil classes the demo classifier knows about.
var candidates = []Result{
	{SoilType: "Loamy", Description: "Balanced sand, silt and clay. Retains moisture while draining well.", Color: "#8B5A2B"},
	{SoilType: "Sandy", Description: "Coarse texture, drains fast, low in nutrients. Irrigate in short frequent cycles.", Color: "#D2B48C"},
	{SoilType: "Clay", Description: "Fine particles, holds water and nutrients but compacts easily.", Color: "#A0522D"},
	{SoilType: "Silty", Description: "Smooth and fertile, prone to crusting after heavy rain.", Color: "#9C8468"},
}

type mockClient struct {
	mu    sync.Mutex
	delay time.Duration
	rng   *rand.Rand
}

// NewMock returns a classifier that picks uniformly among the fixed soil
// classes after the configured delay. Confidence lands in [75,95).
func NewMock(delay time.Duration, rng *rand.Rand) Client {
	return &mockClient{delay: delay, rng: rng}
}

func (m *mockClient) Classify(imageName string, imageSize int64) (*Result, error) {
	time.Sleep(m.delay)
	m.mu.Lock()
	r := candidates[m.rng.Intn(len(candidates))]
	r.Confidence = 75 + m.rng.Float64()*20
	m.mu.Unlock()
	return &r, nil
}
