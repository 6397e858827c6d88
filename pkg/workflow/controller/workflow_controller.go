package controller

import "github.com/labstack/echo/v4"

type WorkflowController interface {
	Start(c echo.Context) error
	Get(c echo.Context) error
	End(c echo.Context) error
	Reset(c echo.Context) error

	UploadImage(c echo.Context) error
	CaptureImage(c echo.Context) error
	ClearImage(c echo.Context) error
	Preview(c echo.Context) error

	DetectLocation(c echo.Context) error
	SetManualLocation(c echo.Context) error

	FetchWeather(c echo.Context) error
	AnalyzeSoil(c echo.Context) error
	SuggestCrops(c echo.Context) error

	ToggleSaved(c echo.Context) error
	ToggleCompare(c echo.Context) error
}
