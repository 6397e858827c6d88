package serviceImp

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"soilscan/entities"
	"soilscan/pkg/agronomy"
	"soilscan/pkg/analyzer"
	"soilscan/pkg/camera"
	"soilscan/pkg/geo"
	"soilscan/pkg/upload"
	"soilscan/pkg/weather"
	"soilscan/pkg/workflow/repository"
	"soilscan/pkg/workflow/types"
)

type kbSearcher interface {
	Search(query string, k int) ([]entities.KBChunk, error)
	DocsMeta(ids []uint) (map[uint]entities.KBDocument, error)
}

type WorkflowSvc struct {
	repo     repository.SessionRepository
	previews *upload.Store
	soil     analyzer.Client
	crops    agronomy.Client
	weather  weather.Client
	geo      geo.Client
	camera   camera.Client
	kb       kbSearcher // optional

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(repo repository.SessionRepository, previews *upload.Store,
	soil analyzer.Client, crops agronomy.Client, wx weather.Client,
	g geo.Client, cam camera.Client, kb kbSearcher) *WorkflowSvc {
	return &WorkflowSvc{
		repo: repo, previews: previews,
		soil: soil, crops: crops, weather: wx, geo: g, camera: cam, kb: kb,
		locks: map[string]*sync.Mutex{},
	}
}

// lock serializes all mutations of one session: the UI disables a control
// while its operation is in flight, and the busy guards below enforce the
// same thing server-side.
func (s *WorkflowSvc) lock(id string) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *WorkflowSvc) dropLock(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

func (s *WorkflowSvc) find(id string) (*entities.Session, error) {
	sess, err := s.repo.Find(id)
	if err != nil {
		return nil, types.NotFound("session not found")
	}
	return sess, nil
}

func (s *WorkflowSvc) Start() (*entities.Session, error) {
	sess := &entities.Session{
		SessionID:     uuid.NewString(),
		WeatherStatus: entities.StatusAbsent,
		SoilStatus:    entities.StatusAbsent,
		CropsStatus:   entities.StatusAbsent,
	}
	if err := s.repo.Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *WorkflowSvc) Get(id string) (*entities.Session, error) {
	unlock := s.lock(id)
	defer unlock()
	return s.find(id)
}

func (s *WorkflowSvc) End(id string) error {
	unlock := s.lock(id)
	defer unlock()
	sess, err := s.find(id)
	if err != nil {
		return err
	}
	if sess.PreviewRef != "" {
		s.previews.Release(sess.PreviewRef)
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.dropLock(id)
	return nil
}

// Reset drives every entity back to the initial empty state and releases any
// held preview, from whatever state the session is in.
func (s *WorkflowSvc) Reset(id string) (*entities.Session, error) {
	unlock := s.lock(id)
	defer unlock()
	sess, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if sess.PreviewRef != "" {
		s.previews.Release(sess.PreviewRef)
	}
	if err := s.repo.DeleteCrops(id); err != nil {
		return nil, err
	}
	fresh := &entities.Session{
		SessionID:     sess.SessionID,
		WeatherStatus: entities.StatusAbsent,
		SoilStatus:    entities.StatusAbsent,
		CropsStatus:   entities.StatusAbsent,
		CreatedAt:     sess.CreatedAt,
	}
	if err := s.repo.Save(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *WorkflowSvc) AttachImage(id, name, mime string, data []byte) (*entities.Session, error) {
	unlock := s.lock(id)
	defer unlock()
	return s.attach(id, name, mime, data)
}

func (s *WorkflowSvc) attach(id, name, mime string, data []byte) (*entities.Session, error) {
	sess, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.ToLower(mime), "image/") {
		return nil, types.Validation("unsupported file type: " + mime)
	}
	if len(data) == 0 {
		return nil, types.Validation("empty file")
	}
	if int64(len(data)) > types.MaxImageBytes {
		return nil, types.Validation("image exceeds the 10 MB limit")
	}

	// replacing an image releases the old preview and invalidates derived data
	if sess.PreviewRef != "" {
		s.previews.Release(sess.PreviewRef)
	}
	if err := s.repo.DeleteCrops(id); err != nil {
		return nil, err
	}
	sess.ImageName = name
	sess.ImageMIME = mime
	sess.ImageSize = int64(len(data))
	sess.PreviewRef = s.previews.Put(data)
	clearSoil(sess)
	clearCrops(sess)
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	sess.Crops = nil
	return sess, nil
}

func (s *WorkflowSvc) CaptureImage(id string) (*entities.Session, error) {
	unlock := s.lock(id)
	defer unlock()
	frame, release, err := s.camera.Acquire()
	if err != nil {
		return nil, types.Capability("camera unavailable or denied")
	}
	defer release() // stream is scoped: stopped on success and failure alike
	return s.attach(id, frame.Name, frame.MIME, frame.Data)
}

func (s *WorkflowSvc) ClearImage(id string) (*entities.Session, error) {
	unlock := s.lock(id)
	defer unlock()
	sess, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !sess.HasImage() {
		return nil, types.Precondition("no image to clear")
	}
	s.previews.Release(sess.PreviewRef)
	if err := s.repo.DeleteCrops(id); err != nil {
		return nil, err
	}
	sess.ImageName = ""
	sess.ImageMIME = ""
	sess.ImageSize = 0
	sess.PreviewRef = ""
	clearSoil(sess)
	clearCrops(sess)
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	sess.Crops = nil
	return sess, nil
}

func (s *WorkflowSvc) Preview(id string) ([]byte, string, error) {
	unlock := s.lock(id)
	defer unlock()
	sess, err := s.find(id)
	if err != nil {
		return nil, "", err
	}
	if !sess.HasImage() {
		return nil, "", types.NotFound("no image attached")
	}
	data, ok := s.previews.Get(sess.PreviewRef)
	if !ok {
		return nil, "", types.NotFound("preview expired")
	}
	return data, sess.ImageMIME, nil
}

func (s *WorkflowSvc) DetectLocation(id string) (*entities.Session, error) {
	unlock := s.lock(id)
	defer unlock()
	sess, err := s.find(id)
	if err != nil {
		return nil, err
	}
	pos, err := s.geo.Detect()
	if err != nil {
		// recovery path: surface the manual-entry panel, location untouched
		sess.ManualPanelOpen = true
		if err := s.repo.Save(sess); err != nil {
			return nil, err
		}
		return nil, types.Capability("geolocation unavailable or denied")
	}
	setLocation(sess, pos.Latitude, pos.Longitude, pos.City, pos.Region, "device")
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *WorkflowSvc) SetManualLocation(id, city, region string) (*entities.Session, error) {
	unlock := s.lock(id)
	defer unlock()
	sess, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(city) == "" {
		return nil, types.Validation("city is required")
	}
	pos := geo.Synthesize(city, region)
	setLocation(sess, pos.Latitude, pos.Longitude, pos.City, pos.Region, "manual")
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// The three async operations below set their loading flag and then drop the
// session lock for the engine call, so a re-entrant request sees "loading"
// and gets the busy rejection instead of queueing behind the engine.

func (s *WorkflowSvc) FetchWeather(id string) (*entities.Session, error) {
	unlock := s.lock(id)
	sess, err := s.find(id)
	if err != nil {
		unlock()
		return nil, err
	}
	if !sess.HasLocation() {
		unlock()
		return nil, types.Precondition("set location first")
	}
	if sess.WeatherStatus == entities.StatusLoading {
		unlock()
		return nil, types.Busy("weather fetch already in progress")
	}

	prev := sess.WeatherStatus
	lat, lon := *sess.Latitude, *sess.Longitude
	sess.WeatherStatus = entities.StatusLoading
	if err := s.repo.Save(sess); err != nil {
		unlock()
		return nil, err
	}
	unlock()

	snap, engineErr := s.weather.Fetch(lat, lon)

	unlock = s.lock(id)
	defer unlock()
	sess, err = s.find(id)
	if err != nil {
		return nil, err
	}
	if sess.WeatherStatus != entities.StatusLoading {
		// a reset or clear landed while the engine ran; drop the stale result
		return sess, nil
	}
	if engineErr != nil {
		sess.WeatherStatus = prev
		_ = s.repo.Save(sess)
		return nil, types.Capability("weather service failed: " + engineErr.Error())
	}
	now := time.Now()
	sess.WeatherStatus = entities.StatusPresent
	sess.TemperatureC = &snap.TemperatureC
	sess.HumidityPct = &snap.HumidityPct
	sess.PrecipMM = &snap.PrecipMM
	sess.WeatherDesc = snap.Description
	sess.WeatherLat = &lat // snapshot keeps the coords it was fetched for
	sess.WeatherLon = &lon
	sess.WeatherAt = &now
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *WorkflowSvc) AnalyzeSoil(id string) (*entities.Session, error) {
	unlock := s.lock(id)
	sess, err := s.find(id)
	if err != nil {
		unlock()
		return nil, err
	}
	if !sess.HasImage() {
		unlock()
		return nil, types.Precondition("upload a soil photo first")
	}
	if sess.SoilStatus == entities.StatusLoading {
		unlock()
		return nil, types.Busy("analysis already in progress")
	}

	prev := sess.SoilStatus
	name, size := sess.ImageName, sess.ImageSize
	sess.SoilStatus = entities.StatusLoading
	if err := s.repo.Save(sess); err != nil {
		unlock()
		return nil, err
	}
	unlock()

	res, engineErr := s.soil.Classify(name, size)

	unlock = s.lock(id)
	defer unlock()
	sess, err = s.find(id)
	if err != nil {
		return nil, err
	}
	if sess.SoilStatus != entities.StatusLoading {
		return sess, nil
	}
	if engineErr != nil {
		sess.SoilStatus = prev
		_ = s.repo.Save(sess)
		return nil, types.Capability("soil analysis failed: " + engineErr.Error())
	}
	sess.SoilStatus = entities.StatusPresent
	sess.SoilType = res.SoilType
	sess.Confidence = &res.Confidence
	sess.SoilDesc = res.Description
	sess.SoilColor = res.Color
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *WorkflowSvc) SuggestCrops(id string) (*entities.Session, error) {
	unlock := s.lock(id)
	sess, err := s.find(id)
	if err != nil {
		unlock()
		return nil, err
	}
	if sess.SoilStatus != entities.StatusPresent {
		unlock()
		return nil, types.Precondition("analyze soil first")
	}
	if sess.WeatherStatus != entities.StatusPresent {
		unlock()
		return nil, types.Precondition("fetch weather first")
	}
	if sess.CropsStatus == entities.StatusLoading {
		unlock()
		return nil, types.Busy("suggestion already in progress")
	}

	prev := sess.CropsStatus
	soilType := sess.SoilType
	snap := &weather.Snapshot{
		TemperatureC: *sess.TemperatureC,
		HumidityPct:  *sess.HumidityPct,
		PrecipMM:     *sess.PrecipMM,
		Description:  sess.WeatherDesc,
	}
	sess.CropsStatus = entities.StatusLoading
	if err := s.repo.Save(sess); err != nil {
		unlock()
		return nil, err
	}
	unlock()

	suggestions, engineErr := s.crops.Recommend(soilType, snap)

	unlock = s.lock(id)
	defer unlock()
	sess, err = s.find(id)
	if err != nil {
		return nil, err
	}
	if sess.CropsStatus != entities.StatusLoading {
		return sess, nil
	}
	if engineErr != nil {
		sess.CropsStatus = prev
		_ = s.repo.Save(sess)
		return nil, types.Capability("crop suggestion failed: " + engineErr.Error())
	}

	rows := make([]entities.CropSuggestion, len(suggestions))
	for i, sg := range suggestions {
		rows[i] = entities.CropSuggestion{
			SessionID:   id,
			Name:        sg.Name,
			Suitability: sg.Suitability,
			Season:      sg.Season,
			Reason:      sg.Reason,
			Detail:      sg.Detail,
		}
	}
	if err := s.repo.ReplaceCrops(id, rows); err != nil {
		sess.CropsStatus = prev
		_ = s.repo.Save(sess)
		return nil, err
	}
	sess.CropsStatus = entities.StatusPresent
	if err := s.repo.Save(sess); err != nil {
		return nil, err
	}
	fresh, err := s.find(id)
	if err != nil {
		return nil, err
	}
	s.attachArticles(fresh)
	return fresh, nil
}

// attachArticles decorates each suggestion with up to 3 knowledge-base refs.
// Best effort: KB misses never fail the transition.
func (s *WorkflowSvc) attachArticles(sess *entities.Session) {
	if s.kb == nil {
		return
	}
	for i := range sess.Crops {
		chunks, err := s.kb.Search(sess.Crops[i].Name+" "+sess.SoilType, 3)
		if err != nil || len(chunks) == 0 {
			continue
		}
		seen := map[uint]struct{}{}
		var ids []uint
		for _, ch := range chunks {
			if _, ok := seen[ch.DocID]; !ok {
				seen[ch.DocID] = struct{}{}
				ids = append(ids, ch.DocID)
			}
		}
		meta, err := s.kb.DocsMeta(ids)
		if err != nil {
			continue
		}
		for _, docID := range ids {
			if d, ok := meta[docID]; ok {
				sess.Crops[i].Articles = append(sess.Crops[i].Articles, entities.ArticleRef{Title: d.Title, URL: d.SourceURL})
			}
		}
	}
}

// lockedCrop resolves the crop's session, takes that session's lock, and
// re-reads the row under it: a concurrent suggestion run may have replaced
// the list between the first read and the lock.
func (s *WorkflowSvc) lockedCrop(cropID uint) (*entities.CropSuggestion, func(), error) {
	cs, err := s.repo.FindCrop(cropID)
	if err != nil {
		return nil, nil, types.NotFound("crop suggestion not found")
	}
	unlock := s.lock(cs.SessionID)
	cs, err = s.repo.FindCrop(cropID)
	if err != nil {
		unlock()
		return nil, nil, types.NotFound("crop suggestion not found")
	}
	return cs, unlock, nil
}

func (s *WorkflowSvc) ToggleSaved(cropID uint) (*entities.CropSuggestion, error) {
	cs, unlock, err := s.lockedCrop(cropID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	cs.Saved = !cs.Saved
	if err := s.repo.SaveCrop(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (s *WorkflowSvc) ToggleCompare(cropID uint) (*entities.CropSuggestion, error) {
	cs, unlock, err := s.lockedCrop(cropID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	cs.Compare = !cs.Compare
	if err := s.repo.SaveCrop(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func setLocation(sess *entities.Session, lat, lon float64, city, region, src string) {
	sess.Latitude = &lat
	sess.Longitude = &lon
	sess.City = city
	sess.Region = region
	sess.LocationSrc = src
	sess.ManualPanelOpen = false
	// note: an existing weather snapshot stays as-is — it is tied to the
	// coordinates it was fetched for, not the current location
}

func clearSoil(sess *entities.Session) {
	sess.SoilStatus = entities.StatusAbsent
	sess.SoilType = ""
	sess.Confidence = nil
	sess.SoilDesc = ""
	sess.SoilColor = ""
}

func clearCrops(sess *entities.Session) {
	sess.CropsStatus = entities.StatusAbsent
	sess.Crops = nil
}
