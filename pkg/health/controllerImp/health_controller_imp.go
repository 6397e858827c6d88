package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"soilscan/entities"
	"soilscan/pkg/upload"
)

var appStart = time.Now()

type HealthCtrl struct {
	db       *gorm.DB
	previews *upload.Store
}

func NewHealthCtrl(db *gorm.DB, previews *upload.Store) *HealthCtrl {
	return &HealthCtrl{db: db, previews: previews}
}

// Health pings the session store and reports how much workflow state the
// process is holding: active sessions and preview blobs in memory.
func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	storeOK := true
	storeErr := ""
	var sessions int64
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			storeOK = false
			storeErr = "db.DB(): " + err.Error()
		} else if err := sqlDB.PingContext(ctx); err != nil {
			storeOK = false
			storeErr = "ping: " + err.Error()
		} else if err := h.db.WithContext(ctx).Model(&entities.Session{}).Count(&sessions).Error; err != nil {
			storeOK = false
			storeErr = "count: " + err.Error()
		}
	} else {
		storeOK = false
		storeErr = "gorm db is nil"
	}

	previews := 0
	if h.previews != nil {
		previews = h.previews.Len()
	}

	status := http.StatusOK
	if !storeOK {
		status = http.StatusServiceUnavailable
	}

	type sub struct {
		OK  bool   `json:"ok"`
		Err string `json:"err,omitempty"`
	}
	return c.JSON(status, map[string]any{
		"status":        map[string]any{"ok": storeOK},
		"uptime_sec":    int(time.Since(appStart).Seconds()),
		"sessions":      sessions,
		"previews_held": previews,
		"checks": map[string]any{
			"session_store": sub{OK: storeOK, Err: storeErr},
		},
		"time": time.Now().Format(time.RFC3339),
	})
}
