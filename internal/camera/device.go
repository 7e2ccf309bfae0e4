package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrDeviceNotFound   = errors.New("no camera found")
	ErrUnavailable      = errors.New("camera unavailable")

	ErrNotStreaming = errors.New("camera is not streaming")
	ErrNoFrame      = errors.New("no frame available")
	ErrSuperseded   = errors.New("camera start superseded")
)

// Constraints describe the stream requested from a device.
type Constraints struct {
	FacingMode  string
	IdealWidth  int
	IdealHeight int
}

// DefaultConstraints ask for the user-facing camera at 640x480.
var DefaultConstraints = Constraints{FacingMode: "user", IdealWidth: 640, IdealHeight: 480}

// Device acquires video streams.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a live video stream. Stop releases the underlying tracks and
// must be safe to call more than once.
type Stream interface {
	Frame() (image.Image, error)
	Stop()
}

// Message maps an acquisition error to the text shown next to the retry button.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Permission denied. Check address bar permissions."
	case errors.Is(err, ErrDeviceNotFound):
		return "No camera found."
	default:
		return "Could not access camera."
	}
}

// ClassifyDOMError converts a getUserMedia error name reported by the kiosk
// page into one of the acquisition errors. An empty name means no error.
func ClassifyDOMError(name string) error {
	switch name {
	case "":
		return nil
	case "NotAllowedError", "PermissionDeniedError":
		return fmt.Errorf("%w (%s)", ErrPermissionDenied, name)
	case "NotFoundError":
		return fmt.Errorf("%w (%s)", ErrDeviceNotFound, name)
	default:
		return fmt.Errorf("%w (%s)", ErrUnavailable, name)
	}
}

// NewDevice builds the device named in configuration.
func NewDevice(kind string) (Device, error) {
	switch kind {
	case "push", "":
		return NewPushDevice(), nil
	case "testpattern":
		return NewTestPattern(), nil
	case "none":
		return NoDevice{}, nil
	default:
		return nil, fmt.Errorf("unknown camera device %q", kind)
	}
}

// NoDevice never yields a stream.
type NoDevice struct{}

func (NoDevice) Open(context.Context, Constraints) (Stream, error) {
	return nil, ErrDeviceNotFound
}
