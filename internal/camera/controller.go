package camera

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
)

// State is the lifecycle position of a Controller.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateStreaming
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for st := StateIdle; st <= StateError; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown camera state %q", b)
}

// Status is a snapshot of the controller for display.
type Status struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithConstraints overrides DefaultConstraints.
func WithConstraints(c Constraints) Option {
	return func(ctl *Controller) { ctl.constraints = c }
}

// WithStartHook registers fn to observe the outcome of every Start.
func WithStartHook(fn func(err error)) Option {
	return func(ctl *Controller) { ctl.onStart = fn }
}

// Controller owns at most one live stream at a time.
//
// Idle -> Initializing -> Streaming | Error. Stop moves Streaming back to
// Idle; Start from Error is a retry.
type Controller struct {
	device      Device
	constraints Constraints
	onStart     func(error)

	mu      sync.Mutex
	state   State
	message string
	stream  Stream
	gen     uint64
}

// NewController wraps dev.
func NewController(dev Device, opts ...Option) *Controller {
	c := &Controller{device: dev, constraints: DefaultConstraints}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start releases any previous stream and acquires a new one. A Start that is
// overtaken by a later Start or Stop releases its own stream and returns
// ErrSuperseded. The start hook sees every outcome, superseded ones included.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.releaseLocked()
	c.state = StateInitializing
	c.message = ""
	c.mu.Unlock()

	stream, err := c.open(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	superseded := gen != c.gen
	if superseded {
		if stream != nil {
			stream.Stop()
		}
		err = ErrSuperseded
	}
	if c.onStart != nil {
		c.onStart(err)
	}
	if superseded {
		return err
	}
	if err != nil {
		log.Printf("camera error: %v", err)
		c.state = StateError
		c.message = Message(err)
		return err
	}
	c.stream = stream
	c.state = StateStreaming
	return nil
}

// open turns a device panic into an error so Initializing is always resolved.
func (c *Controller) open(ctx context.Context) (s Stream, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%w: device panic: %v", ErrUnavailable, r)
		}
	}()
	s, err = c.device.Open(ctx, c.constraints)
	if err == nil && s == nil {
		err = fmt.Errorf("%w: device returned no stream", ErrUnavailable)
	}
	return s, err
}

// Stop releases the active stream. It is safe to call at any time.
// An error state is kept so the retry affordance stays visible.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.releaseLocked()
	if c.state != StateError {
		c.state = StateIdle
	}
}

func (c *Controller) releaseLocked() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
}

// Status returns the current state and error message.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, Message: c.message}
}

// Ready reports whether a capture can be attempted.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateStreaming && c.stream != nil
}

// Preview returns the current live frame.
func (c *Controller) Preview() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStreaming || c.stream == nil {
		return nil, ErrNotStreaming
	}
	return c.stream.Frame()
}

// Capture snapshots the current frame as a JPEG data URI.
func (c *Controller) Capture() (string, error) {
	frame, err := c.Preview()
	if err != nil {
		return "", err
	}
	return EncodeSnapshot(frame)
}
