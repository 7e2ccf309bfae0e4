package camera

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	SnapshotWidth   = 300
	SnapshotQuality = 85
)

var ErrBadDataURI = errors.New("malformed data uri")

// EncodeSnapshot scales frame to SnapshotWidth keeping its aspect ratio and
// returns it as a base64 JPEG data URI.
func EncodeSnapshot(frame image.Image) (string, error) {
	if frame == nil {
		return "", ErrNoFrame
	}
	b := frame.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", ErrNoFrame
	}

	h := int(math.Round(float64(b.Dy()) * SnapshotWidth / float64(b.Dx())))
	if h < 1 {
		h = 1
	}
	scaled := imaging.Resize(frame, SnapshotWidth, h, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(SnapshotQuality)); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI splits a base64 data URI into its media type and payload.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrBadDataURI
	}
	if mime == "" {
		mime = "text/plain"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	return mime, data, nil
}
