package geo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeIsStable(t *testing.T) {
	a := Synthesize("Austin", "Texas")
	b := Synthesize("  austin ", "TEXAS")
	assert.Equal(t, a.Latitude, b.Latitude, "case and whitespace must not change the spot")
	assert.Equal(t, a.Longitude, b.Longitude)
	assert.Equal(t, "Austin", a.City)

	c := Synthesize("Fargo", "North Dakota")
	assert.NotEqual(t, a.Latitude, c.Latitude)
}

func TestSynthesizeRanges(t *testing.T) {
	for _, city := range []string{"Austin", "Fargo", "Sapporo", "Nairobi", "Cusco", "x"} {
		p := Synthesize(city, "")
		assert.GreaterOrEqual(t, p.Latitude, -60.0, city)
		assert.LessOrEqual(t, p.Latitude, 60.0, city)
		assert.GreaterOrEqual(t, p.Longitude, -180.0, city)
		assert.LessOrEqual(t, p.Longitude, 180.0, city)
	}
}

func TestDetect(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pos, err := NewMock(0, rng, true).Detect()
	require.NoError(t, err)
	assert.NotEmpty(t, pos.City)
	assert.NotZero(t, pos.Latitude)

	_, err = NewMock(0, rng, false).Detect()
	assert.ErrorIs(t, err, ErrUnavailable)
}
