package agronomy

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"soilscan/pkg/weather"
)

type cropSpec struct {
	name   string
	season string
	detail string
	// base suitability per soil class
	base map[string]float64
}

// The fixed four-crop catalog of the demo recommender.
var catalog = []cropSpec{
	{
		name: "Wheat", season: "Winter",
		detail: "Sow after the first soil-cooling rains; shallow root zone tolerates most textures.",
		base:   map[string]float64{"Loamy": 88, "Sandy": 64, "Clay": 74, "Silty": 85},
	},
	{
		name: "Maize", season: "Summer",
		detail: "Heavy feeder, wants warm soil and steady moisture through tasseling.",
		base:   map[string]float64{"Loamy": 92, "Sandy": 58, "Clay": 70, "Silty": 80},
	},
	{
		name: "Soybean", season: "Spring",
		detail: "Fixes its own nitrogen; avoid waterlogged ground at emergence.",
		base:   map[string]float64{"Loamy": 86, "Sandy": 68, "Clay": 62, "Silty": 78},
	},
	{
		name: "Rice", season: "Monsoon",
		detail: "Needs standing water or near-saturation; clay pans hold the paddy.",
		base:   map[string]float64{"Loamy": 70, "Sandy": 40, "Clay": 90, "Silty": 75},
	},
}

func CropNames() []string {
	out := make([]string, len(catalog))
	for i, c := range catalog {
		out[i] = c.name
	}
	return out
}

type mockClient struct {
	mu    sync.Mutex
	delay time.Duration
	rng   *rand.Rand
}

// NewMock scores the whole catalog, so the result always has exactly four
// entries, ranked by suitability.
func NewMock(delay time.Duration, rng *rand.Rand) Client {
	return &mockClient{delay: delay, rng: rng}
}

func (m *mockClient) Recommend(soilType string, w *weather.Snapshot) ([]Suggestion, error) {
	time.Sleep(m.delay)
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Suggestion, 0, len(catalog))
	for _, c := range catalog {
		score, ok := c.base[soilType]
		if !ok {
			score = 60
		}
		reasons := []string{fmt.Sprintf("%s soil", strings.ToLower(soilType))}
		if w != nil {
			if w.TemperatureC >= 18 && w.TemperatureC <= 30 {
				score += 4
				reasons = append(reasons, "favorable temperature")
			}
			if w.PrecipMM > 10 && c.name == "Rice" {
				score += 5
				reasons = append(reasons, "ample rainfall")
			}
			if w.HumidityPct > 80 && c.name == "Wheat" {
				score -= 3
				reasons = append(reasons, "high humidity risk")
			}
		}
		score += m.rng.Float64()*6 - 3 // small jitter so reruns differ
		if score > 99 {
			score = 99
		}
		if score < 10 {
			score = 10
		}
		out = append(out, Suggestion{
			Name:        c.name,
			Suitability: score,
			Season:      c.season,
			Reason:      strings.Join(reasons, ", "),
			Detail:      c.detail,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Suitability > out[j].Suitability })
	return out, nil
}
