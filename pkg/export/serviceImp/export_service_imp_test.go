package serviceImp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"soilscan/database"
	"soilscan/entities"
	"soilscan/pkg/workflow/types"
)

type stubSessions struct {
	sess *entities.Session
}

func (s *stubSessions) Get(id string) (*entities.Session, error) {
	if s.sess == nil || s.sess.SessionID != id {
		return nil, types.NotFound("session not found")
	}
	return s.sess, nil
}

func analyzedSession() *entities.Session {
	lat, lon := 30.2672, -97.7431
	conf, temp, hum, pre := 88.5, 24.0, 55.0, 3.2
	return &entities.Session{
		SessionID:     "s1",
		ImageName:     "field.jpg",
		City:          "Austin",
		Region:        "Texas",
		Latitude:      &lat,
		Longitude:     &lon,
		WeatherStatus: entities.StatusPresent,
		TemperatureC:  &temp,
		HumidityPct:   &hum,
		PrecipMM:      &pre,
		WeatherDesc:   "Partly cloudy",
		SoilStatus:    entities.StatusPresent,
		SoilType:      "Loamy",
		Confidence:    &conf,
		SoilDesc:      "Dark, crumbly, well-drained.",
		CropsStatus:   entities.StatusPresent,
		Crops: []entities.CropSuggestion{
			{Name: "Maize", Suitability: 92, Season: "Summer", Reason: "loamy soil"},
			{Name: "Wheat", Suitability: 88, Season: "Winter", Reason: "loamy soil"},
		},
	}
}

func TestBuildXLSX(t *testing.T) {
	db := database.OpenSQLite(":memory:")
	svc := New(db, &stubSessions{sess: analyzedSession()}, 0)

	data, name, err := svc.BuildXLSX("s1")
	require.NoError(t, err)
	assert.Contains(t, name, ".xlsx")

	x, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer x.Close()
	assert.ElementsMatch(t, []string{"Summary", "Weather", "Crops"}, x.GetSheetList())

	cell, err := x.GetCellValue("Crops", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Maize", cell)

	hist, err := svc.History("s1")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "download", hist[0].Channel)
}

func TestExportRequiresAnalysis(t *testing.T) {
	db := database.OpenSQLite(":memory:")
	sess := analyzedSession()
	sess.SoilStatus = entities.StatusAbsent
	svc := New(db, &stubSessions{sess: sess}, 0)

	_, _, err := svc.BuildXLSX("s1")
	var te *types.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, types.KindPrecondition, te.Kind)

	_, err = svc.Share("s1")
	assert.Error(t, err)
}

func TestEmailValidation(t *testing.T) {
	db := database.OpenSQLite(":memory:")
	svc := New(db, &stubSessions{sess: analyzedSession()}, 0)

	for _, bad := range []string{"", "nope", "@host", "user@", "  "} {
		_, err := svc.Email("s1", bad)
		var te *types.TransitionError
		require.True(t, errors.As(err, &te), "address %q", bad)
		assert.Equal(t, types.KindValidation, te.Kind, "address %q", bad)
	}

	exp, err := svc.Email("s1", " farmer@example.org ")
	require.NoError(t, err)
	assert.Equal(t, "email", exp.Channel)
	assert.Equal(t, "farmer@example.org", exp.Destination)
}

func TestShareRecordsHistory(t *testing.T) {
	db := database.OpenSQLite(":memory:")
	svc := New(db, &stubSessions{sess: analyzedSession()}, 0)

	exp, err := svc.Share("s1")
	require.NoError(t, err)
	assert.NotEmpty(t, exp.ShareID)

	_, err = svc.Share("s1")
	require.NoError(t, err)

	hist, err := svc.History("s1")
	require.NoError(t, err)
	assert.Len(t, hist, 2)
}
