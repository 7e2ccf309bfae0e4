package camera

import (
	"context"
	"errors"
	"testing"
)

func TestPushDeviceFrames(t *testing.T) {
	dev := NewPushDevice()
	if err := dev.Push(frame(10, 10)); !errors.Is(err, ErrNotStreaming) {
		t.Fatalf("Push with no stream = %v", err)
	}

	c := NewController(dev)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := c.Capture(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("Capture before first frame = %v", err)
	}
	if err := dev.Push(frame(640, 480)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, err := c.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	c.Stop()
	if dev.Streaming() {
		t.Fatal("device still streaming after Stop")
	}
	if err := dev.Push(frame(640, 480)); !errors.Is(err, ErrNotStreaming) {
		t.Fatalf("Push after Stop = %v", err)
	}

	// A new stream must not see the frame of the old one.
	c.Start(context.Background())
	if _, err := c.Capture(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("stale frame leaked into new stream: %v", err)
	}
}

func TestPushDeviceReportedFailure(t *testing.T) {
	dev := NewPushDevice()
	dev.ReportFailure("NotAllowedError")

	c := NewController(dev)
	if err := c.Start(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Start = %v", err)
	}
	if got := c.Status().Message; got != "Permission denied. Check address bar permissions." {
		t.Fatalf("message = %q", got)
	}

	dev.ReportFailure("")
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("retry after clearing failure: %v", err)
	}
}

func TestTestPatternReleasesStreams(t *testing.T) {
	dev := NewTestPattern()
	c := NewController(dev)
	c.Start(context.Background())
	c.Start(context.Background())
	if n := dev.OpenStreams(); n != 1 {
		t.Fatalf("open streams = %d, want 1", n)
	}
	img, err := c.Preview()
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 480 {
		t.Fatalf("frame size = %v", b)
	}
	c.Stop()
	if n := dev.OpenStreams(); n != 0 {
		t.Fatalf("open streams after Stop = %d", n)
	}
}

func TestDecodeDataURI(t *testing.T) {
	mime, data, err := DecodeDataURI("data:image/png;base64,aGk=")
	if err != nil || mime != "image/png" || string(data) != "hi" {
		t.Fatalf("got %q %q %v", mime, data, err)
	}
	for _, bad := range []string{
		"",
		"image/png;base64,aGk=",
		"data:image/png,aGk=",
		"data:image/png;base64",
		"data:image/png;base64,!!!",
	} {
		if _, _, err := DecodeDataURI(bad); !errors.Is(err, ErrBadDataURI) {
			t.Errorf("DecodeDataURI(%q) err = %v", bad, err)
		}
	}
}
