package handler

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"haaziri/internal/app"
	"haaziri/internal/camera"
	"haaziri/internal/kiosk"
)

const (
	maxFrameBytes  = 8 << 20
	previewQuality = 80
)

// ---------- Capture screen ----------

func (h *Handler) KioskView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"screen": h.app.Screen(), "kiosk": h.app.Kiosk.View()})
}

func (h *Handler) requireCapture(c *gin.Context) bool {
	if err := h.app.RequireScreen(app.ScreenCapture); err != nil {
		fail(c, http.StatusConflict, "Capture screen is not active.")
		return false
	}
	return true
}

type nameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) SetName(c *gin.Context) {
	if !h.requireCapture(c) {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.app.Kiosk.SetName(req.Name); err != nil {
		fail(c, http.StatusConflict, kiosk.Notice(err))
		return
	}
	c.JSON(http.StatusOK, h.app.Kiosk.View())
}

func (h *Handler) Capture(c *gin.Context) {
	if !h.requireCapture(c) {
		return
	}
	rec, err := h.app.Kiosk.Capture(c.Request.Context())
	if err != nil {
		fail(c, captureStatus(err), kiosk.Notice(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": rec, "kiosk": h.app.Kiosk.View()})
}

func captureStatus(err error) int {
	switch {
	case errors.Is(err, kiosk.ErrNameRequired):
		return http.StatusBadRequest
	case errors.Is(err, kiosk.ErrCameraNotReady), errors.Is(err, kiosk.ErrNotCapturing):
		return http.StatusConflict
	default:
		log.Printf("capture failed: %v", err)
		return http.StatusInternalServerError
	}
}

// Reset answers with the view; a camera failure shows up in it.
func (h *Handler) Reset(c *gin.Context) {
	if !h.requireCapture(c) {
		return
	}
	if err := h.app.Kiosk.Reset(c.Request.Context()); err != nil {
		if errors.Is(err, kiosk.ErrNotCaptured) {
			fail(c, http.StatusConflict, kiosk.Notice(err))
			return
		}
		if !errors.Is(err, camera.ErrSuperseded) {
			log.Printf("camera restart after reset: %v", err)
		}
	}
	c.JSON(http.StatusOK, h.app.Kiosk.View())
}

func (h *Handler) CapturedPhoto(c *gin.Context) {
	st, ok := h.app.Kiosk.State().(kiosk.Captured)
	if !ok {
		fail(c, http.StatusNotFound, "No photo captured.")
		return
	}
	writePhoto(c, st.Record.PhotoData)
}

func writePhoto(c *gin.Context, uri string) {
	mime, data, err := camera.DecodeDataURI(uri)
	if err != nil {
		log.Printf("stored photo unreadable: %v", err)
		fail(c, http.StatusUnprocessableEntity, "Photo data is unreadable.")
		return
	}
	c.Data(http.StatusOK, mime, data)
}

// ---------- Camera ----------

func (h *Handler) RetryCamera(c *gin.Context) {
	if !h.requireCapture(c) {
		return
	}
	if err := h.app.Kiosk.RetryCamera(c.Request.Context()); err != nil {
		if errors.Is(err, kiosk.ErrNotCapturing) {
			fail(c, http.StatusConflict, kiosk.Notice(err))
			return
		}
		if !errors.Is(err, camera.ErrSuperseded) {
			log.Printf("camera retry: %v", err)
		}
	}
	c.JSON(http.StatusOK, h.app.Kiosk.View())
}

func (h *Handler) Preview(c *gin.Context) {
	frame, err := h.cam.Preview()
	if err != nil {
		fail(c, http.StatusConflict, kiosk.Notice(kiosk.ErrCameraNotReady))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "image/jpeg")
	c.Status(http.StatusOK)
	if err := imaging.Encode(c.Writer, frame, imaging.JPEG, imaging.JPEGQuality(previewQuality)); err != nil {
		log.Printf("preview encode: %v", err)
	}
}

// PushFrame accepts a raw image body or a data URI from canvas.toDataURL.
func (h *Handler) PushFrame(c *gin.Context) {
	if h.push == nil {
		fail(c, http.StatusNotFound, "camera is not fed by the page")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes))
	if err != nil {
		fail(c, http.StatusRequestEntityTooLarge, "frame too large")
		return
	}
	if bytes.HasPrefix(body, []byte("data:")) {
		_, decoded, err := camera.DecodeDataURI(string(bytes.TrimSpace(body)))
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		body = decoded
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		fail(c, http.StatusBadRequest, "frame is not a decodable image")
		return
	}
	if err := h.push.Push(img); err != nil {
		fail(c, http.StatusConflict, "camera is not streaming")
		return
	}
	c.Status(http.StatusNoContent)
}

type failureRequest struct {
	Name string `json:"name"`
}

// ReportFailure records the getUserMedia outcome seen by the page and
// re-acquires so the controller reflects it. An empty name clears it.
func (h *Handler) ReportFailure(c *gin.Context) {
	if h.push == nil {
		fail(c, http.StatusNotFound, "camera is not fed by the page")
		return
	}
	var req failureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	h.push.ReportFailure(req.Name)
	if h.app.Screen() == app.ScreenCapture {
		if _, capturing := h.app.Kiosk.State().(kiosk.Capturing); capturing {
			_ = h.app.Kiosk.RetryCamera(c.Request.Context())
		}
	}
	c.JSON(http.StatusOK, h.app.Kiosk.View())
}
