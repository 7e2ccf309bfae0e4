package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"haaziri/internal/camera"
	"haaziri/internal/kiosk"
)

func TestHooksCountByOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Capture(nil)
	m.Capture(nil)
	m.Capture(kiosk.ErrNameRequired)
	m.Capture(fmt.Errorf("%w: frame", kiosk.ErrCameraNotReady))
	m.CameraStart(nil)
	m.CameraStart(camera.ClassifyDOMError("NotAllowedError"))
	m.CameraStart(camera.ErrSuperseded)
	m.Sync(nil)
	m.Sync(errors.New("status 500"))
	m.Login(false)
	opts := m.AdminOptions()
	opts.OnLogin(true)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	out := string(body)

	for _, want := range []string{
		`haaziri_captures_total{outcome="ok"} 2`,
		`haaziri_captures_total{outcome="name_required"} 1`,
		`haaziri_captures_total{outcome="camera_not_ready"} 1`,
		`haaziri_camera_starts_total{outcome="ok"} 1`,
		`haaziri_camera_starts_total{outcome="permission_denied"} 1`,
		`haaziri_camera_starts_total{outcome="superseded"} 1`,
		`haaziri_sync_requests_total{outcome="ok"} 1`,
		`haaziri_sync_requests_total{outcome="failed"} 1`,
		`haaziri_admin_logins_total{outcome="ok"} 1`,
		`haaziri_admin_logins_total{outcome="rejected"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}
