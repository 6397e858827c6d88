package service

import "soilscan/entities"

// WorkflowService owns the soil-analysis session state machine. Every method
// either commits a full transition or returns a *types.TransitionError with
// the session untouched.
type WorkflowService interface {
	Start() (*entities.Session, error)
	Get(id string) (*entities.Session, error)
	End(id string) error
	Reset(id string) (*entities.Session, error)

	AttachImage(id, name, mime string, data []byte) (*entities.Session, error)
	CaptureImage(id string) (*entities.Session, error)
	ClearImage(id string) (*entities.Session, error)
	Preview(id string) (data []byte, mime string, err error)

	DetectLocation(id string) (*entities.Session, error)
	SetManualLocation(id, city, region string) (*entities.Session, error)

	FetchWeather(id string) (*entities.Session, error)
	AnalyzeSoil(id string) (*entities.Session, error)
	SuggestCrops(id string) (*entities.Session, error)

	ToggleSaved(cropID uint) (*entities.CropSuggestion, error)
	ToggleCompare(cropID uint) (*entities.CropSuggestion, error)
}
