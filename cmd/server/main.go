package main

import (
	"log"
	"math/rand"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"soilscan/config"
	"soilscan/database"
	"soilscan/router"

	"soilscan/pkg/agronomy"
	"soilscan/pkg/analyzer"
	"soilscan/pkg/camera"
	"soilscan/pkg/geo"
	"soilscan/pkg/upload"
	"soilscan/pkg/weather"

	exCtrlImp "soilscan/pkg/export/controllerImp"
	exSvcImp "soilscan/pkg/export/serviceImp"

	kbCtrlImp "soilscan/pkg/kb/controllerImp"
	kbEmbedder "soilscan/pkg/kb/embedder"
	kbRepoImp "soilscan/pkg/kb/repositoryImp"
	kbSvcImp "soilscan/pkg/kb/serviceImp"

	shellCtrlImp "soilscan/pkg/shell/controllerImp"
	shellRepoImp "soilscan/pkg/shell/repositoryImp"

	wfCtrlImp "soilscan/pkg/workflow/controllerImp"
	wfRepoImp "soilscan/pkg/workflow/repositoryImp"
	wfSvcImp "soilscan/pkg/workflow/serviceImp"

	healthCtrlImp "soilscan/pkg/health/controllerImp"
)

func main() {
	// 1) Config
	cfg := config.Load()

	// 2) Session store (in-memory sqlite) + automigrate
	db := database.OpenSQLite(cfg.DBPath)
	database.SeedNotifications(db)

	// 3) Echo
	e := echo.New()
	e.Use(echoMiddleware.Recover())

	// 4) Mock engines, seedable for reproducible runs. Each engine gets its
	// own source: a rand.Rand is not safe for concurrent use, and the mocks
	// only lock their own.
	seed := cfg.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	newRng := func(n int64) *rand.Rand { return rand.New(rand.NewSource(seed + n)) }
	soilEngine := analyzer.NewMock(cfg.MockDelay, newRng(1))
	cropEngine := agronomy.NewMock(cfg.MockDelay, newRng(2))
	geoEngine := geo.NewMock(cfg.MockDelay, newRng(3), cfg.GeoAvailable)
	camEngine := camera.NewMock(cfg.MockDelay, newRng(4), cfg.CameraAvailable)

	// weather: real client only when an endpoint is configured
	var wx weather.Client
	if cfg.WeatherEndpoint != "" {
		wx = weather.NewOpenMeteo(cfg.WeatherEndpoint)
	} else {
		wx = weather.NewMock(cfg.MockDelay, newRng(5))
	}

	// 5) KB wiring — embedder only when configured, keyword search otherwise
	var emb *kbEmbedder.Client
	if cfg.EmbEndpoint != "" {
		emb = kbEmbedder.New(cfg.EmbEndpoint, cfg.EmbAPIKey, cfg.EmbModel)
	}
	kbRepo := kbRepoImp.New(db)
	kbSvc := kbSvcImp.New(kbRepo, emb)
	kbCtrl := kbCtrlImp.New(kbSvc, cfg.KBDomains, cfg.KBMaxPageBytes)

	// 6) Workflow core
	previews := upload.NewStore()
	wfRepo := wfRepoImp.New(db)
	wfSvc := wfSvcImp.New(wfRepo, previews, soilEngine, cropEngine, wx, geoEngine, camEngine, kbSvc)
	wfCtrl := wfCtrlImp.New(wfSvc)

	// 7) Export + shell register their own routes
	exSvc := exSvcImp.New(db, wfSvc, cfg.MockDelay)
	exCtrlImp.New(exSvc).Register(e)
	shellRepo := shellRepoImp.New(db)
	shellCtrlImp.New(shellRepo, kbSvc).Register(e)

	// 8) Health + router
	hCtrl := healthCtrlImp.NewHealthCtrl(db, previews)
	r := router.New(e, wfCtrl, kbCtrl, hCtrl)

	// 9) Start
	log.Printf("listening on :%s", cfg.Port)
	if err := r.Start(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
