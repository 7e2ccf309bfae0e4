package camera

import (
	"context"
	"image"
	"image/color"
	"sync/atomic"
	"time"
)

// TestPattern produces synthetic frames for running the kiosk without hardware.
type TestPattern struct {
	open atomic.Int64
}

func NewTestPattern() *TestPattern { return &TestPattern{} }

func (t *TestPattern) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := c.IdealWidth, c.IdealHeight
	if w <= 0 || h <= 0 {
		w, h = 640, 480
	}
	t.open.Add(1)
	return &patternStream{owner: t, w: w, h: h}, nil
}

// OpenStreams is the number of streams not yet stopped.
func (t *TestPattern) OpenStreams() int64 { return t.open.Load() }

type patternStream struct {
	owner   *TestPattern
	w, h    int
	stopped atomic.Bool
}

func (s *patternStream) Frame() (image.Image, error) {
	if s.stopped.Load() {
		return nil, ErrNotStreaming
	}
	shift := int(time.Now().UnixMilli()/40) % 256
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8((x*255/s.w + shift) % 256),
				G: uint8(y * 255 / s.h),
				B: 128,
				A: 255,
			})
		}
	}
	return img, nil
}

func (s *patternStream) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		s.owner.open.Add(-1)
	}
}
