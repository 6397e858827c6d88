package router

import (
	"github.com/labstack/echo/v4"

	"soilscan/pkg/middleware"
	wfctrl "soilscan/pkg/workflow/controller"
)

func New(
	e *echo.Echo,
	wf wfctrl.WorkflowController,
	kbCtrl interface {
		IngestText(echo.Context) error
		IngestURL(echo.Context) error
		Search(echo.Context) error
	},
	healthCtrl interface{ Health(echo.Context) error },
) *echo.Echo {
	e.Use(middleware.ClientID())
	e.GET("/health", healthCtrl.Health)

	// Workflow session lifecycle
	e.POST("/sessions", wf.Start)
	e.GET("/sessions/:id", wf.Get)
	e.DELETE("/sessions/:id", wf.End)
	e.POST("/sessions/:id/reset", wf.Reset)

	// Image
	e.POST("/sessions/:id/image", wf.UploadImage)
	e.POST("/sessions/:id/image/capture", wf.CaptureImage)
	e.DELETE("/sessions/:id/image", wf.ClearImage)
	e.GET("/sessions/:id/image/preview", wf.Preview)

	// Location
	e.POST("/sessions/:id/location/detect", wf.DetectLocation)
	e.POST("/sessions/:id/location", wf.SetManualLocation)

	// Analysis pipeline
	e.POST("/sessions/:id/weather", wf.FetchWeather)
	e.POST("/sessions/:id/analyze", wf.AnalyzeSoil)
	e.POST("/sessions/:id/crops", wf.SuggestCrops)
	e.POST("/crops/:crop_id/save", wf.ToggleSaved)
	e.POST("/crops/:crop_id/compare", wf.ToggleCompare)

	// KB endpoints
	e.POST("/kb/ingest", kbCtrl.IngestText)
	e.POST("/kb/ingest/url", kbCtrl.IngestURL)
	e.GET("/kb/search", kbCtrl.Search)

	return e
}
