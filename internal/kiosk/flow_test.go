package kiosk

import (
	"context"
	"errors"
	"testing"
	"time"

	"haaziri/internal/camera"
	"haaziri/internal/records"
	"haaziri/internal/store"
)

type fakeCamera struct {
	state   camera.State
	starts  int
	stops   int
	photo   string
	err     error
	opening func() // runs while Start is acquiring
}

func (c *fakeCamera) Start(context.Context) error {
	c.starts++
	if fn := c.opening; fn != nil {
		c.opening = nil
		fn()
	}
	if c.err != nil {
		c.state = camera.StateError
		return c.err
	}
	c.state = camera.StateStreaming
	return nil
}

func (c *fakeCamera) Stop() {
	c.stops++
	if c.state != camera.StateError {
		c.state = camera.StateIdle
	}
}

func (c *fakeCamera) Capture() (string, error) {
	if c.state != camera.StateStreaming {
		return "", camera.ErrNotStreaming
	}
	return c.photo, nil
}

func (c *fakeCamera) Ready() bool { return c.state == camera.StateStreaming }

func (c *fakeCamera) Status() camera.Status {
	return camera.Status{State: c.state, Message: camera.Message(c.err)}
}

type failingAppender struct{}

func (failingAppender) Append(context.Context, records.Record) error {
	return errors.New("quota exceeded")
}

var fixedNow = time.Date(2026, time.March, 7, 14, 5, 9, 0, time.UTC)

func newFlow(t *testing.T) (*Flow, *fakeCamera, *records.Store) {
	t.Helper()
	cam := &fakeCamera{photo: "data:image/jpeg;base64,AAAA"}
	recs := records.New(store.NewMemory())
	f := New(cam, recs, Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
	if err := f.Enter(context.Background()); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	return f, cam, recs
}

func TestEnterStartsCamera(t *testing.T) {
	f, cam, _ := newFlow(t)
	if cam.starts != 1 {
		t.Fatalf("camera started %d times", cam.starts)
	}
	v := f.View()
	if v.Screen != "capturing" || !v.CanCapture {
		t.Fatalf("view = %+v", v)
	}
}

func TestCaptureCreatesRecord(t *testing.T) {
	ctx := context.Background()
	f, cam, recs := newFlow(t)

	f.SetName("  Carol  ")
	rec, err := f.Capture(ctx)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	want := records.Record{
		ID:        "1772892309000",
		Name:      "Carol",
		Date:      "3/7/2026",
		Time:      "2:05:09 PM",
		PhotoData: "data:image/jpeg;base64,AAAA",
	}
	if rec != want {
		t.Fatalf("record = %+v\nwant     %+v", rec, want)
	}
	if got := recs.List(ctx); len(got) != 1 || got[0] != want {
		t.Fatalf("stored = %+v", got)
	}
	if cam.stops != 1 || cam.state != camera.StateIdle {
		t.Fatalf("camera not stopped after capture: stops=%d state=%s", cam.stops, cam.state)
	}
	st, ok := f.State().(Captured)
	if !ok || st.Record != want {
		t.Fatalf("state = %#v", f.State())
	}
	if err := f.SetName("Mallory"); !errors.Is(err, ErrNameLocked) {
		t.Fatalf("SetName after capture = %v", err)
	}
	if _, err := f.Capture(ctx); !errors.Is(err, ErrNotCapturing) {
		t.Fatalf("second Capture = %v", err)
	}
}

func TestCapturePrependsToExistingRecords(t *testing.T) {
	ctx := context.Background()
	f, _, recs := newFlow(t)
	recs.Append(ctx, records.Record{ID: "1", Name: "Alice"})
	recs.Append(ctx, records.Record{ID: "2", Name: "Bob"})

	f.SetName("Carol")
	if _, err := f.Capture(ctx); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	got := recs.List(ctx)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Name != "Carol" || got[1].ID != "2" || got[2].ID != "1" {
		t.Fatalf("order = %+v", got)
	}
}

func TestCaptureRejectsBlankName(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"", "   ", "\t\n"} {
		f, cam, recs := newFlow(t)
		f.SetName(name)
		_, err := f.Capture(ctx)
		if !errors.Is(err, ErrNameRequired) {
			t.Fatalf("Capture(%q) err = %v", name, err)
		}
		if Notice(err) != "Please enter your name first!" {
			t.Fatalf("notice = %q", Notice(err))
		}
		if n := len(recs.List(ctx)); n != 0 {
			t.Fatalf("records = %d", n)
		}
		if st, ok := f.State().(Capturing); !ok || st.Name != name {
			t.Fatalf("state changed: %#v", f.State())
		}
		if cam.stops != 0 {
			t.Fatal("camera stopped on rejected capture")
		}
	}
}

func TestCaptureDisabledWithoutCamera(t *testing.T) {
	ctx := context.Background()
	cam := &fakeCamera{err: camera.ErrPermissionDenied}
	recs := records.New(store.NewMemory())
	f := New(cam, recs, Options{})
	f.Enter(ctx)

	v := f.View()
	if v.CanCapture || v.Camera.State != camera.StateError {
		t.Fatalf("view = %+v", v)
	}
	f.SetName("Dana")
	if _, err := f.Capture(ctx); !errors.Is(err, ErrCameraNotReady) {
		t.Fatalf("Capture err = %v", err)
	}
	if n := len(recs.List(ctx)); n != 0 {
		t.Fatalf("records = %d", n)
	}

	cam.err = nil
	if err := f.RetryCamera(ctx); err != nil {
		t.Fatalf("RetryCamera: %v", err)
	}
	if _, err := f.Capture(ctx); err != nil {
		t.Fatalf("Capture after retry: %v", err)
	}
}

func TestFailedAppendKeepsState(t *testing.T) {
	cam := &fakeCamera{photo: "data:x"}
	var observed error
	f := New(cam, failingAppender{}, Options{OnCapture: func(err error) { observed = err }})
	f.Enter(context.Background())
	f.SetName("Eve")

	if _, err := f.Capture(context.Background()); err == nil {
		t.Fatal("expected append error")
	}
	if observed == nil {
		t.Fatal("capture hook not called with the error")
	}
	if _, ok := f.State().(Capturing); !ok {
		t.Fatalf("state = %#v", f.State())
	}
	if cam.stops != 0 {
		t.Fatal("camera stopped although nothing was saved")
	}
}

func TestResetRestartsCamera(t *testing.T) {
	ctx := context.Background()
	f, cam, _ := newFlow(t)
	f.SetName("Frank")
	f.Capture(ctx)

	if err := f.RetryCamera(ctx); !errors.Is(err, ErrNotCapturing) {
		t.Fatalf("RetryCamera while captured = %v", err)
	}
	if err := f.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	st, ok := f.State().(Capturing)
	if !ok || st.Name != "" {
		t.Fatalf("state after reset = %#v", f.State())
	}
	if cam.starts != 2 || cam.state != camera.StateStreaming {
		t.Fatalf("camera starts=%d state=%s", cam.starts, cam.state)
	}
	if v := f.View(); v.Record != nil {
		t.Fatal("photo still shown after reset")
	}
}

func TestEnterWhileCapturedKeepsCameraOff(t *testing.T) {
	ctx := context.Background()
	f, cam, _ := newFlow(t)
	f.SetName("Gina")
	f.Capture(ctx)
	f.Leave()
	f.Enter(ctx)
	if cam.starts != 1 {
		t.Fatalf("camera restarted over a captured photo: starts=%d", cam.starts)
	}
	if v := f.View(); v.Screen != "captured" || v.Record == nil || v.Name != "Gina" {
		t.Fatalf("view = %+v", v)
	}
}

func TestResetRequiresCapturedPhoto(t *testing.T) {
	ctx := context.Background()
	f, cam, _ := newFlow(t)
	f.SetName("Hana")

	if err := f.Reset(ctx); !errors.Is(err, ErrNotCaptured) {
		t.Fatalf("Reset while capturing = %v", err)
	}
	if st, ok := f.State().(Capturing); !ok || st.Name != "Hana" {
		t.Fatalf("state = %#v", f.State())
	}
	if cam.starts != 1 {
		t.Fatalf("camera restarted: starts=%d", cam.starts)
	}
}

func TestCaptureDuringCameraStartLeavesCameraOff(t *testing.T) {
	ctx := context.Background()
	f, cam, _ := newFlow(t)
	f.SetName("Ivan")

	// The earlier stream is still live, so a capture can land mid-start.
	cam.opening = func() {
		if _, err := f.Capture(ctx); err != nil {
			t.Errorf("Capture: %v", err)
		}
	}
	if err := f.RetryCamera(ctx); err != nil {
		t.Fatalf("RetryCamera: %v", err)
	}
	if _, ok := f.State().(Captured); !ok {
		t.Fatalf("state = %#v", f.State())
	}
	if cam.state != camera.StateIdle {
		t.Fatalf("camera left %s under a captured photo", cam.state)
	}
}
