package serviceImp

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soilscan/database"
	"soilscan/entities"
	"soilscan/pkg/agronomy"
	"soilscan/pkg/analyzer"
	"soilscan/pkg/camera"
	"soilscan/pkg/geo"
	"soilscan/pkg/upload"
	"soilscan/pkg/weather"
	wfRepoImp "soilscan/pkg/workflow/repositoryImp"
	"soilscan/pkg/workflow/types"
)

type testEnv struct {
	svc      *WorkflowSvc
	previews *upload.Store
	cam      *camera.MockClient
}

// newEnv wires the service against an in-memory store with zero-delay seeded
// engines. Each engine gets its own rand source, same as the production
// wiring: rand.Rand is not safe to share across goroutines.
// geoAvailable/camAvailable simulate device capability.
func newEnv(t *testing.T, geoAvailable, camAvailable bool) *testEnv {
	t.Helper()
	db := database.OpenSQLite(":memory:")
	newRng := func(n int64) *rand.Rand { return rand.New(rand.NewSource(42 + n)) }
	previews := upload.NewStore()
	cam := camera.NewMock(0, newRng(4), camAvailable)
	svc := New(
		wfRepoImp.New(db),
		previews,
		analyzer.NewMock(0, newRng(1)),
		agronomy.NewMock(0, newRng(2)),
		weather.NewMock(0, newRng(5)),
		geo.NewMock(0, newRng(3), geoAvailable),
		cam,
		nil,
	)
	return &testEnv{svc: svc, previews: previews, cam: cam}
}

func kindOf(t *testing.T, err error) *types.TransitionError {
	t.Helper()
	var te *types.TransitionError
	require.True(t, errors.As(err, &te), "expected TransitionError, got %v", err)
	return te
}

func jpeg(n int) []byte {
	b := make([]byte, n)
	b[0], b[1] = 0xFF, 0xD8
	return b
}

func TestAttachRejectsBadFiles(t *testing.T) {
	env := newEnv(t, true, true)
	sess, err := env.svc.Start()
	require.NoError(t, err)

	_, err = env.svc.AttachImage(sess.SessionID, "report.pdf", "application/pdf", []byte("%PDF"))
	te := kindOf(t, err)
	assert.Equal(t, types.KindValidation, te.Kind)

	_, err = env.svc.AttachImage(sess.SessionID, "huge.jpg", "image/jpeg", jpeg(types.MaxImageBytes+1))
	te = kindOf(t, err)
	assert.Equal(t, types.KindValidation, te.Kind)

	_, err = env.svc.AttachImage(sess.SessionID, "empty.jpg", "image/jpeg", nil)
	assert.Error(t, err)

	// every rejection left the session untouched
	got, err := env.svc.Get(sess.SessionID)
	require.NoError(t, err)
	assert.False(t, got.HasImage())
	assert.Equal(t, entities.StatusAbsent, got.SoilStatus)
	assert.Equal(t, 0, env.previews.Len())
}

func TestClearImageCascades(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID

	_, err := env.svc.AttachImage(id, "field.jpg", "image/jpeg", jpeg(2<<20))
	require.NoError(t, err)
	_, err = env.svc.SetManualLocation(id, "Austin", "Texas")
	require.NoError(t, err)
	_, err = env.svc.FetchWeather(id)
	require.NoError(t, err)
	_, err = env.svc.AnalyzeSoil(id)
	require.NoError(t, err)
	got, err := env.svc.SuggestCrops(id)
	require.NoError(t, err)
	require.Len(t, got.Crops, 4)

	got, err = env.svc.ClearImage(id)
	require.NoError(t, err)
	assert.False(t, got.HasImage())
	assert.Equal(t, entities.StatusAbsent, got.SoilStatus)
	assert.Equal(t, entities.StatusAbsent, got.CropsStatus)
	assert.Empty(t, got.Crops)
	// weather is not derived from the image and survives
	assert.Equal(t, entities.StatusPresent, got.WeatherStatus)
	assert.Equal(t, 0, env.previews.Len())

	fresh, _ := env.svc.Get(id)
	assert.Empty(t, fresh.Crops)
}

func TestSuggestCropsPreconditionMessages(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID

	_, err := env.svc.SuggestCrops(id)
	te := kindOf(t, err)
	assert.Equal(t, types.KindPrecondition, te.Kind)
	assert.Equal(t, "analyze soil first", te.Message)

	_, err = env.svc.AttachImage(id, "field.jpg", "image/jpeg", jpeg(1024))
	require.NoError(t, err)
	_, err = env.svc.AnalyzeSoil(id)
	require.NoError(t, err)

	_, err = env.svc.SuggestCrops(id)
	te = kindOf(t, err)
	assert.Equal(t, types.KindPrecondition, te.Kind)
	assert.Equal(t, "fetch weather first", te.Message)
}

func TestToggleSavedIdempotentAndTargeted(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID
	env.mustComplete(t, id)

	got, _ := env.svc.Get(id)
	require.Len(t, got.Crops, 4)
	target := got.Crops[1]

	cs, err := env.svc.ToggleSaved(target.CropID)
	require.NoError(t, err)
	assert.True(t, cs.Saved)
	cs, err = env.svc.ToggleSaved(target.CropID)
	require.NoError(t, err)
	assert.False(t, cs.Saved) // double-toggle returns to original

	after, _ := env.svc.Get(id)
	for _, c := range after.Crops {
		assert.False(t, c.Saved, "crop %s should be untouched", c.Name)
	}

	_, err = env.svc.ToggleSaved(99999)
	te := kindOf(t, err)
	assert.Equal(t, types.KindNotFound, te.Kind)
}

func TestResetFromAnyState(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID
	env.mustComplete(t, id)

	got, err := env.svc.Reset(id)
	require.NoError(t, err)
	assert.False(t, got.HasImage())
	assert.False(t, got.HasLocation())
	assert.False(t, got.ManualPanelOpen)
	assert.Equal(t, entities.StatusAbsent, got.WeatherStatus)
	assert.Equal(t, entities.StatusAbsent, got.SoilStatus)
	assert.Equal(t, entities.StatusAbsent, got.CropsStatus)
	assert.Equal(t, 0, env.previews.Len())

	fresh, err := env.svc.Get(id)
	require.NoError(t, err)
	assert.Empty(t, fresh.Crops)
	assert.Empty(t, fresh.SoilType)
	assert.Nil(t, fresh.TemperatureC)

	// reset on an already-empty session is fine too
	_, err = env.svc.Reset(id)
	assert.NoError(t, err)
}

// The end-to-end walk from the acceptance scenario: upload, analyze, weather
// rejected before location, manual city, weather, suggestions.
func TestFullScenario(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID

	got, err := env.svc.AttachImage(id, "sample.jpg", "image/jpeg", jpeg(2<<20))
	require.NoError(t, err)
	assert.True(t, got.HasImage())

	got, err = env.svc.AnalyzeSoil(id)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPresent, got.SoilStatus)
	assert.Contains(t, []string{"Loamy", "Sandy", "Clay", "Silty"}, got.SoilType)
	require.NotNil(t, got.Confidence)
	assert.GreaterOrEqual(t, *got.Confidence, 75.0)
	assert.LessOrEqual(t, *got.Confidence, 95.0)

	_, err = env.svc.FetchWeather(id)
	te := kindOf(t, err)
	assert.Equal(t, "set location first", te.Message)

	got, err = env.svc.SetManualLocation(id, "Austin", "")
	require.NoError(t, err)
	assert.True(t, got.HasLocation())
	assert.Equal(t, "Austin", got.City)

	got, err = env.svc.FetchWeather(id)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPresent, got.WeatherStatus)
	require.NotNil(t, got.TemperatureC)
	assert.GreaterOrEqual(t, *got.TemperatureC, 15.0)
	assert.LessOrEqual(t, *got.TemperatureC, 35.0)

	got, err = env.svc.SuggestCrops(id)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPresent, got.CropsStatus)
	require.Len(t, got.Crops, 4)
	for _, c := range got.Crops {
		assert.False(t, c.Saved)
		assert.False(t, c.Compare)
	}
}

func TestDetectLocationDeniedOpensManualPanel(t *testing.T) {
	env := newEnv(t, false, true) // geolocation denied
	sess, _ := env.svc.Start()

	_, err := env.svc.DetectLocation(sess.SessionID)
	te := kindOf(t, err)
	assert.Equal(t, types.KindCapability, te.Kind)

	got, _ := env.svc.Get(sess.SessionID)
	assert.False(t, got.HasLocation())
	assert.True(t, got.ManualPanelOpen)

	// manual entry is the recovery path and closes the panel again
	got, err = env.svc.SetManualLocation(sess.SessionID, "Lubbock", "Texas")
	require.NoError(t, err)
	assert.True(t, got.HasLocation())
	assert.False(t, got.ManualPanelOpen)
	assert.Equal(t, "manual", got.LocationSrc)
}

func TestManualLocationRequiresCity(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	_, err := env.svc.SetManualLocation(sess.SessionID, "   ", "Texas")
	te := kindOf(t, err)
	assert.Equal(t, types.KindValidation, te.Kind)
}

func TestCaptureReleasesStream(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()

	got, err := env.svc.CaptureImage(sess.SessionID)
	require.NoError(t, err)
	assert.True(t, got.HasImage())
	assert.Equal(t, "image/jpeg", got.ImageMIME)
	assert.Equal(t, int32(0), env.cam.OpenStreams(), "stream must be stopped after capture")
}

func TestCaptureDenied(t *testing.T) {
	env := newEnv(t, true, false)
	sess, _ := env.svc.Start()
	_, err := env.svc.CaptureImage(sess.SessionID)
	te := kindOf(t, err)
	assert.Equal(t, types.KindCapability, te.Kind)
	assert.Equal(t, int32(0), env.cam.OpenStreams())
}

func TestReplaceImageReleasesOldPreview(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID
	env.mustComplete(t, id)

	before, _ := env.svc.Get(id)
	oldRef := before.PreviewRef

	got, err := env.svc.AttachImage(id, "second.png", "image/png", jpeg(4096))
	require.NoError(t, err)
	assert.NotEqual(t, oldRef, got.PreviewRef)
	assert.Equal(t, 1, env.previews.Len())
	_, ok := env.previews.Get(oldRef)
	assert.False(t, ok)

	// derived data is invalidated by the replacement
	assert.Equal(t, entities.StatusAbsent, got.SoilStatus)
	assert.Equal(t, entities.StatusAbsent, got.CropsStatus)
	// location and weather are not image-derived
	assert.True(t, got.HasLocation())
	assert.Equal(t, entities.StatusPresent, got.WeatherStatus)
}

func TestLocationChangeKeepsWeatherSnapshot(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID

	_, err := env.svc.SetManualLocation(id, "Austin", "Texas")
	require.NoError(t, err)
	got, err := env.svc.FetchWeather(id)
	require.NoError(t, err)
	fetchedAt := got.WeatherAt
	fetchedLat := *got.WeatherLat

	got, err = env.svc.SetManualLocation(id, "Fargo", "North Dakota")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPresent, got.WeatherStatus)
	assert.Equal(t, fetchedAt.Unix(), got.WeatherAt.Unix())
	assert.Equal(t, fetchedLat, *got.WeatherLat) // snapshot keeps fetch-time coords
	assert.NotEqual(t, fetchedLat, *got.Latitude)
}

func TestEndSession(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID
	env.mustComplete(t, id)

	require.NoError(t, env.svc.End(id))
	assert.Equal(t, 0, env.previews.Len())

	_, err := env.svc.Get(id)
	te := kindOf(t, err)
	assert.Equal(t, types.KindNotFound, te.Kind)
}

// gateWeather blocks inside the engine call until released, so tests can
// observe the loading state from another goroutine.
type gateWeather struct {
	started chan struct{}
	release chan struct{}
}

func (g *gateWeather) Fetch(lat, lon float64) (*weather.Snapshot, error) {
	g.started <- struct{}{}
	<-g.release
	return &weather.Snapshot{TemperatureC: 21, HumidityPct: 50, PrecipMM: 1, Description: "Clear sky"}, nil
}

type gateAnalyzer struct {
	started chan struct{}
	release chan struct{}
}

func (g *gateAnalyzer) Classify(imageName string, imageSize int64) (*analyzer.Result, error) {
	g.started <- struct{}{}
	<-g.release
	return &analyzer.Result{SoilType: "Loamy", Confidence: 80, Description: "d", Color: "#8B4513"}, nil
}

func newGatedEnv(t *testing.T, wx weather.Client, soil analyzer.Client) *testEnv {
	t.Helper()
	db := database.OpenSQLite(":memory:")
	newRng := func(n int64) *rand.Rand { return rand.New(rand.NewSource(42 + n)) }
	previews := upload.NewStore()
	cam := camera.NewMock(0, newRng(4), true)
	if wx == nil {
		wx = weather.NewMock(0, newRng(5))
	}
	if soil == nil {
		soil = analyzer.NewMock(0, newRng(1))
	}
	svc := New(
		wfRepoImp.New(db),
		previews,
		soil,
		agronomy.NewMock(0, newRng(2)),
		wx,
		geo.NewMock(0, newRng(3), true),
		cam,
		nil,
	)
	return &testEnv{svc: svc, previews: previews, cam: cam}
}

func TestFetchWeatherBusyWhileRunning(t *testing.T) {
	gate := &gateWeather{started: make(chan struct{}), release: make(chan struct{})}
	env := newGatedEnv(t, gate, nil)
	sess, _ := env.svc.Start()
	id := sess.SessionID
	_, err := env.svc.SetManualLocation(id, "Austin", "Texas")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.FetchWeather(id)
		done <- err
	}()
	<-gate.started // the first fetch is inside the engine, loading committed

	_, err = env.svc.FetchWeather(id)
	te := kindOf(t, err)
	assert.Equal(t, types.KindBusy, te.Kind)
	assert.Equal(t, "weather fetch already in progress", te.Message)

	close(gate.release)
	require.NoError(t, <-done)

	got, _ := env.svc.Get(id)
	assert.Equal(t, entities.StatusPresent, got.WeatherStatus)
}

func TestAnalyzeBusyWhileRunning(t *testing.T) {
	gate := &gateAnalyzer{started: make(chan struct{}), release: make(chan struct{})}
	env := newGatedEnv(t, nil, gate)
	sess, _ := env.svc.Start()
	id := sess.SessionID
	_, err := env.svc.AttachImage(id, "field.jpg", "image/jpeg", jpeg(1024))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.AnalyzeSoil(id)
		done <- err
	}()
	<-gate.started

	_, err = env.svc.AnalyzeSoil(id)
	te := kindOf(t, err)
	assert.Equal(t, types.KindBusy, te.Kind)
	assert.Equal(t, "analysis already in progress", te.Message)

	close(gate.release)
	require.NoError(t, <-done)

	got, _ := env.svc.Get(id)
	assert.Equal(t, entities.StatusPresent, got.SoilStatus)
}

func TestResetDuringFetchDropsStaleResult(t *testing.T) {
	gate := &gateWeather{started: make(chan struct{}), release: make(chan struct{})}
	env := newGatedEnv(t, gate, nil)
	sess, _ := env.svc.Start()
	id := sess.SessionID
	_, err := env.svc.SetManualLocation(id, "Austin", "Texas")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.FetchWeather(id)
		done <- err
	}()
	<-gate.started

	_, err = env.svc.Reset(id)
	require.NoError(t, err)
	close(gate.release)
	require.NoError(t, <-done)

	got, _ := env.svc.Get(id)
	assert.Equal(t, entities.StatusAbsent, got.WeatherStatus, "result from before the reset must not land")
	assert.Nil(t, got.TemperatureC)
}

// Different sessions drive different engines at the same time; each engine
// owns its rand source, so this is safe to run under the race detector.
func TestConcurrentSessionsAcrossEngines(t *testing.T) {
	env := newEnv(t, true, true)

	ids := make([]string, 4)
	for i := range ids {
		sess, err := env.svc.Start()
		require.NoError(t, err)
		ids[i] = sess.SessionID
		_, err = env.svc.AttachImage(ids[i], "field.jpg", "image/jpeg", jpeg(2048))
		require.NoError(t, err)
		_, err = env.svc.SetManualLocation(ids[i], "Austin", "Texas")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids)*2)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.svc.AnalyzeSoil(id)
			errs <- err
		}(id)
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.svc.FetchWeather(id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range ids {
		got, err := env.svc.Get(id)
		require.NoError(t, err)
		assert.Equal(t, entities.StatusPresent, got.SoilStatus)
		assert.Equal(t, entities.StatusPresent, got.WeatherStatus)
	}
}

func TestToggleStaleCropAfterResuggest(t *testing.T) {
	env := newEnv(t, true, true)
	sess, _ := env.svc.Start()
	id := sess.SessionID
	env.mustComplete(t, id)

	// second session keeps the crop table non-empty across the replace, so
	// sqlite cannot hand the stale rowids back out
	other, _ := env.svc.Start()
	env.mustComplete(t, other.SessionID)

	got, _ := env.svc.Get(id)
	require.Len(t, got.Crops, 4)
	staleID := got.Crops[0].CropID

	// a fresh suggestion run replaces the whole list
	_, err := env.svc.SuggestCrops(id)
	require.NoError(t, err)

	_, err = env.svc.ToggleSaved(staleID)
	te := kindOf(t, err)
	assert.Equal(t, types.KindNotFound, te.Kind)

	otherGot, _ := env.svc.Get(other.SessionID)
	assert.Len(t, otherGot.Crops, 4, "the other session's list is untouched")
}

// mustComplete drives a session through the whole pipeline.
func (env *testEnv) mustComplete(t *testing.T, id string) {
	t.Helper()
	_, err := env.svc.AttachImage(id, "field.jpg", "image/jpeg", jpeg(1<<20))
	require.NoError(t, err)
	_, err = env.svc.SetManualLocation(id, "Austin", "Texas")
	require.NoError(t, err)
	_, err = env.svc.FetchWeather(id)
	require.NoError(t, err)
	_, err = env.svc.AnalyzeSoil(id)
	require.NoError(t, err)
	_, err = env.svc.SuggestCrops(id)
	require.NoError(t, err)
}
