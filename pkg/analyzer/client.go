package analyzer

// Result of classifying one soil photo.
type Result struct {
	SoilType    string  `json:"soil_type"`
	Confidence  float64 `json:"confidence"` // percent
	Description string  `json:"description"`
	Color       string  `json:"color"` // display hex for the UI badge
}

type Client interface {
	Classify(imageName string, imageSize int64) (*Result, error)
}
