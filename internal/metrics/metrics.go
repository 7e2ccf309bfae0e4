// Package metrics counts kiosk activity for Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"haaziri/internal/admin"
	"haaziri/internal/camera"
	"haaziri/internal/kiosk"
)

// Metrics holds the kiosk counters. Hook methods are shaped to plug into
// the flow and controller options.
type Metrics struct {
	reg prometheus.Gatherer

	captures     *prometheus.CounterVec
	cameraStarts *prometheus.CounterVec
	syncs        *prometheus.CounterVec
	logins       *prometheus.CounterVec
}

// New registers the counters on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		captures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "haaziri_captures_total",
			Help: "Attendance capture attempts by outcome.",
		}, []string{"outcome"}),
		cameraStarts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "haaziri_camera_starts_total",
			Help: "Camera acquisition attempts by outcome.",
		}, []string{"outcome"}),
		syncs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "haaziri_sync_requests_total",
			Help: "Sync requests sent to the sheet endpoint by outcome.",
		}, []string{"outcome"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "haaziri_admin_logins_total",
			Help: "Admin passcode attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Capture is a kiosk.Options.OnCapture hook.
func (m *Metrics) Capture(err error) {
	m.captures.WithLabelValues(captureOutcome(err)).Inc()
}

// CameraStart is a camera.WithStartHook hook.
func (m *Metrics) CameraStart(err error) {
	m.cameraStarts.WithLabelValues(cameraOutcome(err)).Inc()
}

// Sync is an admin.Options.OnSync hook.
func (m *Metrics) Sync(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.syncs.WithLabelValues(outcome).Inc()
}

// Login is an admin.Options.OnLogin hook.
func (m *Metrics) Login(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "rejected"
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func captureOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, kiosk.ErrNameRequired):
		return "name_required"
	case errors.Is(err, kiosk.ErrCameraNotReady):
		return "camera_not_ready"
	case errors.Is(err, kiosk.ErrNotCapturing):
		return "not_capturing"
	default:
		return "error"
	}
}

func cameraOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, camera.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, camera.ErrDeviceNotFound):
		return "not_found"
	case errors.Is(err, camera.ErrSuperseded):
		return "superseded"
	default:
		return "unavailable"
	}
}

// AdminOptions returns admin options wired to m.
func (m *Metrics) AdminOptions() admin.Options {
	return admin.Options{OnSync: m.Sync, OnLogin: m.Login}
}
