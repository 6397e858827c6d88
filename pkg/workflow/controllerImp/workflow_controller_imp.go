package controllerImp

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"soilscan/pkg/workflow/service"
	"soilscan/pkg/workflow/types"
)

type WorkflowCtrl struct{ svc service.WorkflowService }

func New(svc service.WorkflowService) *WorkflowCtrl { return &WorkflowCtrl{svc} }

// httpStatus maps a rejection kind onto the response code.
func httpStatus(err error) int {
	var te *types.TransitionError
	if !errors.As(err, &te) {
		return http.StatusInternalServerError
	}
	switch te.Kind {
	case types.KindValidation:
		return http.StatusBadRequest
	case types.KindPrecondition, types.KindBusy:
		return http.StatusConflict
	case types.KindCapability:
		return http.StatusServiceUnavailable
	case types.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func fail(c echo.Context, err error) error {
	return c.JSON(httpStatus(err), map[string]string{"error": err.Error()})
}

func (h *WorkflowCtrl) Start(c echo.Context) error {
	sess, err := h.svc.Start()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *WorkflowCtrl) Get(c echo.Context) error {
	sess, err := h.svc.Get(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) End(c echo.Context) error {
	if err := h.svc.End(c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WorkflowCtrl) Reset(c echo.Context) error {
	sess, err := h.svc.Reset(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) UploadImage(c echo.Context) error {
	fh, err := c.FormFile("photo")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "photo file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "cannot read upload"})
	}
	defer f.Close()
	// read one byte past the cap so the service can reject oversize uploads
	data, err := io.ReadAll(io.LimitReader(f, types.MaxImageBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "cannot read upload"})
	}
	mime := fh.Header.Get("Content-Type")
	sess, err := h.svc.AttachImage(c.Param("id"), fh.Filename, mime, data)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) CaptureImage(c echo.Context) error {
	sess, err := h.svc.CaptureImage(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) ClearImage(c echo.Context) error {
	sess, err := h.svc.ClearImage(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) Preview(c echo.Context) error {
	data, mime, err := h.svc.Preview(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.Blob(http.StatusOK, mime, data)
}

func (h *WorkflowCtrl) DetectLocation(c echo.Context) error {
	sess, err := h.svc.DetectLocation(c.Param("id"))
	if err != nil {
		var te *types.TransitionError
		if errors.As(err, &te) && te.Kind == types.KindCapability {
			// failure already opened the manual-entry panel
			return c.JSON(httpStatus(err), echo.Map{"error": te.Message, "manual_panel_open": true})
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) SetManualLocation(c echo.Context) error {
	var body struct {
		City   string `json:"city"`
		Region string `json:"region"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	sess, err := h.svc.SetManualLocation(c.Param("id"), body.City, body.Region)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) FetchWeather(c echo.Context) error {
	sess, err := h.svc.FetchWeather(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) AnalyzeSoil(c echo.Context) error {
	sess, err := h.svc.AnalyzeSoil(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) SuggestCrops(c echo.Context) error {
	sess, err := h.svc.SuggestCrops(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *WorkflowCtrl) ToggleSaved(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("crop_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid crop_id"})
	}
	cs, err := h.svc.ToggleSaved(uint(id))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *WorkflowCtrl) ToggleCompare(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("crop_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid crop_id"})
	}
	cs, err := h.svc.ToggleCompare(uint(id))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cs)
}
