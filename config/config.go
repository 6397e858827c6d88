package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port            string
	Timezone        string
	DBPath          string
	MockDelay       time.Duration
	RandSeed        int64
	GeoAvailable    bool
	CameraAvailable bool
	WeatherEndpoint string
	KBDomains       string
	KBMaxPageBytes  int
	EmbEndpoint     string
	EmbAPIKey       string
	EmbModel        string
}

func Load() AppConfig {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] No .env file found or error loading: %v", err)
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	getInt := func(k string, def int) int {
		if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
			return v
		}
		return def
	}
	cfg := AppConfig{
		Port:            get("PORT", "8080"),
		Timezone:        get("TZ", "America/Chicago"),
		DBPath:          get("DB_PATH", ":memory:"),
		MockDelay:       time.Duration(getInt("MOCK_DELAY_MS", 1500)) * time.Millisecond,
		RandSeed:        int64(getInt("RAND_SEED", 0)), // 0 = time-seeded
		GeoAvailable:    get("GEO_AVAILABLE", "true") == "true",
		CameraAvailable: get("CAMERA_AVAILABLE", "true") == "true",
		WeatherEndpoint: get("WEATHER_ENDPOINT", ""),
		KBDomains:       get("KB_ALLOWED_DOMAINS", ""),
		KBMaxPageBytes:  getInt("KB_MAX_BYTES_PER_PAGE", 1500000),
		EmbEndpoint:     get("EMB_ENDPOINT", ""),
		EmbAPIKey:       get("EMB_API_KEY", ""),
		EmbModel:        get("EMB_MODEL", ""),
	}
	log.Printf("[cfg] %+v", cfg)
	return cfg
}
