// Package kiosk drives the capture screen: a name is typed, a photo is
// taken, and the pair is stored as an attendance record.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"haaziri/internal/camera"
	"haaziri/internal/records"
)

var (
	ErrNameRequired   = errors.New("name required")
	ErrCameraNotReady = errors.New("camera not ready")
	ErrNameLocked     = errors.New("name is locked after capture")
	ErrNotCapturing   = errors.New("capture screen is showing a result")
	ErrNotCaptured    = errors.New("no captured photo to clear")
)

// Notice returns the blocking message shown to the user for a rejected action.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrNameRequired):
		return "Please enter your name first!"
	case errors.Is(err, ErrCameraNotReady):
		return "Camera is not ready yet."
	case errors.Is(err, ErrNameLocked), errors.Is(err, ErrNotCapturing):
		return "Attendance already marked. Tap Mark Another to continue."
	case errors.Is(err, ErrNotCaptured):
		return "Take a photo first."
	default:
		return "Could not mark attendance. Please try again."
	}
}

// State is either Capturing or Captured.
type State interface {
	isState()
}

// Capturing: camera live, name editable.
type Capturing struct {
	Name string
}

// Captured: photo shown, name locked.
type Captured struct {
	Record records.Record
}

func (Capturing) isState() {}
func (Captured) isState()  {}

// Camera is the part of camera.Controller the flow drives.
type Camera interface {
	Start(ctx context.Context) error
	Stop()
	Capture() (string, error)
	Ready() bool
	Status() camera.Status
}

// Appender persists a new record.
type Appender interface {
	Append(ctx context.Context, rec records.Record) error
}

// Options tune how records are stamped.
type Options struct {
	Location   *time.Location
	DateLayout string
	TimeLayout string
	Now        func() time.Time
	OnCapture  func(err error)
}

// Flow is the capture screen state machine.
type Flow struct {
	cam  Camera
	recs Appender
	opts Options

	mu    sync.Mutex
	state State
}

// New starts in Capturing with an empty name. The camera is not started
// until Enter.
func New(cam Camera, recs Appender, opts Options) *Flow {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DateLayout == "" {
		opts.DateLayout = "1/2/2006"
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = "3:04:05 PM"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Flow{cam: cam, recs: recs, opts: opts, state: Capturing{}}
}

// Enter is called when the capture screen becomes visible. The camera is
// started unless a captured photo is being shown.
func (f *Flow) Enter(ctx context.Context) error {
	f.mu.Lock()
	_, capturing := f.state.(Capturing)
	f.mu.Unlock()
	if !capturing {
		return nil
	}
	return f.startCamera(ctx)
}

// startCamera starts the camera and stops it again if a capture completed
// while it was starting.
func (f *Flow) startCamera(ctx context.Context) error {
	err := f.cam.Start(ctx)
	f.mu.Lock()
	_, capturing := f.state.(Capturing)
	f.mu.Unlock()
	if !capturing {
		f.cam.Stop()
	}
	return err
}

// Leave is called when the capture screen is hidden.
func (f *Flow) Leave() {
	f.cam.Stop()
}

// SetName updates the name field.
func (f *Flow) SetName(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.state.(Capturing); !ok {
		return ErrNameLocked
	}
	f.state = Capturing{Name: name}
	return nil
}

// Capture takes the photo, stores the record, and moves to Captured.
// On any error the state is left untouched.
func (f *Flow) Capture(ctx context.Context) (rec records.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() {
		if f.opts.OnCapture != nil {
			f.opts.OnCapture(err)
		}
	}()

	st, ok := f.state.(Capturing)
	if !ok {
		return records.Record{}, ErrNotCapturing
	}
	name := strings.TrimSpace(st.Name)
	if name == "" {
		return records.Record{}, ErrNameRequired
	}
	if !f.cam.Ready() {
		return records.Record{}, ErrCameraNotReady
	}

	photo, err := f.cam.Capture()
	if err != nil {
		return records.Record{}, fmt.Errorf("%w: %v", ErrCameraNotReady, err)
	}

	now := f.opts.Now().In(f.opts.Location)
	rec = records.Record{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Name:      name,
		Date:      now.Format(f.opts.DateLayout),
		Time:      now.Format(f.opts.TimeLayout),
		PhotoData: photo,
	}
	if err := f.recs.Append(ctx, rec); err != nil {
		return records.Record{}, err
	}

	f.cam.Stop()
	f.state = Captured{Record: rec}
	return rec, nil
}

// Reset ("Mark Another") clears the shown result and returns to a live
// camera with an empty name. It is only valid from Captured.
func (f *Flow) Reset(ctx context.Context) error {
	f.mu.Lock()
	if _, ok := f.state.(Captured); !ok {
		f.mu.Unlock()
		return ErrNotCaptured
	}
	f.state = Capturing{}
	f.mu.Unlock()
	return f.startCamera(ctx)
}

// RetryCamera restarts the camera after an acquisition failure.
func (f *Flow) RetryCamera(ctx context.Context) error {
	f.mu.Lock()
	_, capturing := f.state.(Capturing)
	f.mu.Unlock()
	if !capturing {
		return ErrNotCapturing
	}
	return f.startCamera(ctx)
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// View is what the capture screen renders.
type View struct {
	Screen     string          `json:"screen"`
	Name       string          `json:"name"`
	Camera     camera.Status   `json:"camera"`
	CanCapture bool            `json:"canCapture"`
	Record     *records.Record `json:"record,omitempty"`
}

// View snapshots the flow for rendering.
func (f *Flow) View() View {
	st := f.State()
	cam := f.cam.Status()
	switch st := st.(type) {
	case Captured:
		rec := st.Record
		return View{Screen: "captured", Name: rec.Name, Camera: cam, Record: &rec}
	case Capturing:
		return View{
			Screen:     "capturing",
			Name:       st.Name,
			Camera:     cam,
			CanCapture: cam.State == camera.StateStreaming,
		}
	}
	return View{Camera: cam}
}
