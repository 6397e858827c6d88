package controllerImp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"soilscan/entities"
	"soilscan/pkg/agronomy"
	"soilscan/pkg/shell/repository"
)

type kbSearcher interface {
	Search(query string, k int) ([]entities.KBChunk, error)
	DocsMeta(ids []uint) (map[uint]entities.KBDocument, error)
}

// ShellCtrl serves the header bar: search, notifications, settings. Fully
// independent of the workflow session state.
type ShellCtrl struct {
	repo repository.ShellRepository
	kb   kbSearcher
}

func New(repo repository.ShellRepository, kb kbSearcher) *ShellCtrl {
	return &ShellCtrl{repo: repo, kb: kb}
}

func (h *ShellCtrl) Register(e *echo.Echo) {
	e.GET("/notifications", h.listNotifications)
	e.POST("/notifications", h.createNotification)
	e.POST("/notifications/:id/read", h.markRead)
	e.GET("/notifications/unread_count", h.unreadCount)
	e.GET("/settings", h.getSettings)
	e.PUT("/settings", h.putSettings)
	e.GET("/search", h.search)
}

func (h *ShellCtrl) listNotifications(c echo.Context) error {
	out, err := h.repo.ListNotifications()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ShellCtrl) createNotification(c echo.Context) error {
	var body struct{ Title, Body string }
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Title) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title required"})
	}
	n := &entities.Notification{Title: body.Title, Body: body.Body}
	if err := h.repo.CreateNotification(n); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *ShellCtrl) markRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if _, err := h.repo.FindNotification(uint(id)); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "notification not found"})
	}
	if err := h.repo.MarkRead(uint(id)); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	n, _ := h.repo.FindNotification(uint(id))
	return c.JSON(http.StatusOK, n)
}

func (h *ShellCtrl) unreadCount(c echo.Context) error {
	n, err := h.repo.UnreadCount()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int64{"unread": n})
}

func (h *ShellCtrl) getSettings(c echo.Context) error {
	cid, _ := c.Get("cid").(string)
	s, err := h.repo.GetSettings(cid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, s)
}

// putSettings is the only write path for settings: the dialog commits on
// explicit save, so a canceled edit never reaches the server.
func (h *ShellCtrl) putSettings(c echo.Context) error {
	cid, _ := c.Get("cid").(string)
	var body struct {
		WeatherAlerts *bool `json:"weather_alerts"`
	}
	if err := c.Bind(&body); err != nil || body.WeatherAlerts == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "weather_alerts required"})
	}
	s, err := h.repo.GetSettings(cid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	s.WeatherAlerts = *body.WeatherAlerts
	if err := h.repo.SaveSettings(s); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, s)
}

// search matches the header search box against the crop catalog and the
// knowledge base.
func (h *ShellCtrl) search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "q required"})
	}

	var crops []string
	ql := strings.ToLower(q)
	for _, name := range agronomy.CropNames() {
		if strings.Contains(strings.ToLower(name), ql) {
			crops = append(crops, name)
		}
	}

	var articles []entities.ArticleRef
	if h.kb != nil {
		if chunks, err := h.kb.Search(q, 5); err == nil && len(chunks) > 0 {
			seen := map[uint]struct{}{}
			var ids []uint
			for _, ch := range chunks {
				if _, ok := seen[ch.DocID]; !ok {
					seen[ch.DocID] = struct{}{}
					ids = append(ids, ch.DocID)
				}
			}
			if meta, err := h.kb.DocsMeta(ids); err == nil {
				for _, id := range ids {
					if d, ok := meta[id]; ok {
						articles = append(articles, entities.ArticleRef{Title: d.Title, URL: d.SourceURL})
					}
				}
			}
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"query": q, "crops": crops, "articles": articles})
}
