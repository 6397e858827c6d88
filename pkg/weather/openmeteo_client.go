package weather

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type openMeteo struct {
	endpoint string
	httpc    *http.Client
}

// NewOpenMeteo talks to an Open-Meteo compatible forecast endpoint. Only
// selected when WEATHER_ENDPOINT is configured; the mock stays the default.
func NewOpenMeteo(endpoint string) Client {
	return &openMeteo{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *openMeteo) Fetch(lat, lon float64) (*Snapshot, error) {
	url := fmt.Sprintf("%s/v1/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,relative_humidity_2m,precipitation,weather_code",
		c.endpoint, lat, lon)
	resp, err := c.httpc.Get(url)
	if err != nil {
		return nil, fmt.Errorf("weather fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API status %d", resp.StatusCode)
	}

	var out struct {
		Current struct {
			Temperature2m      float64 `json:"temperature_2m"`
			RelativeHumidity2m float64 `json:"relative_humidity_2m"`
			Precipitation      float64 `json:"precipitation"`
			WeatherCode        int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode weather: %w", err)
	}
	return &Snapshot{
		TemperatureC: out.Current.Temperature2m,
		HumidityPct:  out.Current.RelativeHumidity2m,
		PrecipMM:     out.Current.Precipitation,
		Description:  describeCode(out.Current.WeatherCode),
	}, nil
}

// WMO weather interpretation codes, collapsed to the few buckets the UI shows.
func describeCode(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code <= 48:
		return "Overcast"
	case code <= 67:
		return "Light rain"
	default:
		return "Stormy"
	}
}
