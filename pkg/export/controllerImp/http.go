package controllerImp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	exsvc "soilscan/pkg/export/service"
	"soilscan/pkg/workflow/types"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type httpCtrl struct{ s exsvc.Service }

func New(s exsvc.Service) *httpCtrl { return &httpCtrl{s: s} }

func (h *httpCtrl) Register(e *echo.Echo) {
	e.GET("/sessions/:id/report", h.download)
	e.POST("/sessions/:id/report/share", h.share)
	e.POST("/sessions/:id/report/email", h.email)
	e.GET("/sessions/:id/exports", h.history)
}

func status(err error) int {
	var te *types.TransitionError
	if errors.As(err, &te) {
		switch te.Kind {
		case types.KindValidation:
			return http.StatusBadRequest
		case types.KindPrecondition:
			return http.StatusConflict
		case types.KindNotFound:
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}

func (h *httpCtrl) download(c echo.Context) error {
	data, name, err := h.s.BuildXLSX(c.Param("id"))
	if err != nil {
		return c.JSON(status(err), map[string]string{"error": err.Error()})
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, name))
	return c.Blob(http.StatusOK, xlsxMIME, data)
}

func (h *httpCtrl) share(c echo.Context) error {
	exp, err := h.s.Share(c.Param("id"))
	if err != nil {
		return c.JSON(status(err), map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"export": exp,
		"url":    "/shared/" + exp.ShareID,
	})
}

func (h *httpCtrl) email(c echo.Context) error {
	var body struct {
		Address string `json:"address"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	exp, err := h.s.Email(c.Param("id"), body.Address)
	if err != nil {
		return c.JSON(status(err), map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, exp)
}

func (h *httpCtrl) history(c echo.Context) error {
	out, err := h.s.History(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}
