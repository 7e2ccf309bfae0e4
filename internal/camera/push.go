package camera

import (
	"context"
	"image"
	"sync"
)

// PushDevice is fed by the kiosk page: it forwards the frames it receives
// from getUserMedia and reports acquisition failures by DOM error name.
type PushDevice struct {
	mu      sync.Mutex
	failure error
	active  *pushStream
	frame   image.Image
}

// NewPushDevice creates a device with no reported failure.
func NewPushDevice() *PushDevice {
	return &PushDevice{}
}

// Open fails with the last reported failure, if any.
func (d *PushDevice) Open(ctx context.Context, _ Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failure != nil {
		return nil, d.failure
	}
	if d.active != nil {
		d.active.stopLocked()
	}
	s := &pushStream{dev: d}
	d.active = s
	return s, nil
}

// ReportFailure records the getUserMedia error name seen by the page.
// An empty name clears a previous failure.
func (d *PushDevice) ReportFailure(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failure = ClassifyDOMError(name)
}

// Push replaces the current frame. Frames arriving while no stream is open
// are dropped with ErrNotStreaming.
func (d *PushDevice) Push(img image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return ErrNotStreaming
	}
	d.frame = img
	return nil
}

// Streaming reports whether a stream is currently open.
func (d *PushDevice) Streaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active != nil
}

type pushStream struct {
	dev     *PushDevice
	stopped bool
}

func (s *pushStream) Frame() (image.Image, error) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.stopped {
		return nil, ErrNotStreaming
	}
	if s.dev.frame == nil {
		return nil, ErrNoFrame
	}
	return s.dev.frame, nil
}

func (s *pushStream) Stop() {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	s.stopLocked()
}

func (s *pushStream) stopLocked() {
	if s.stopped {
		return
	}
	s.stopped = true
	if s.dev.active == s {
		s.dev.active = nil
		s.dev.frame = nil
	}
}
