// Package camera provides camera access and frame capture types.
// Implementations of Camera live in subpackages so the rest of the
// pipeline can be built and tested without a capture library.
package camera

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// Pixel formats a Frame can carry.
const (
	FormatBGR  = "BGR"
	FormatRGB  = "RGB"
	FormatGray = "GRAY"
)

// Frame represents a single camera frame as tightly packed 8-bit pixels.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Format    string // "BGR", "RGB", "GRAY"
	Timestamp time.Time
}

// Camera defines the interface for camera operations.
type Camera interface {
	Open(device string) error
	Close() error
	Capture() (Frame, error)
}

// ErrCameraNotFound is returned when the camera device is not found.
var ErrCameraNotFound = errors.New("camera device not found")

// ErrCameraNotOpen is returned when trying to capture from a closed camera.
var ErrCameraNotOpen = errors.New("camera not open")

// ErrNoFrame is returned when no frame could be captured.
var ErrNoFrame = errors.New("failed to capture frame")

// ErrBadFrame is returned when a frame's buffer does not match its size.
var ErrBadFrame = errors.New("malformed frame")

func channels(format string) int {
	switch format {
	case FormatBGR, FormatRGB:
		return 3
	case FormatGray:
		return 1
	}
	return 0
}

// Validate checks that the frame has a known format and a buffer of the
// right length.
func (f Frame) Validate() error {
	ch := channels(f.Format)
	if ch == 0 {
		return fmt.Errorf("%w: unknown format %q", ErrBadFrame, f.Format)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrBadFrame, f.Width, f.Height)
	}
	if want := f.Width * f.Height * ch; len(f.Data) != want {
		return fmt.Errorf("%w: %d bytes for %dx%d %s, want %d", ErrBadFrame, len(f.Data), f.Width, f.Height, f.Format, want)
	}
	return nil
}

// RGBA converts the frame into an RGB image. BGR input has its channels
// swapped in place per pixel; pixel order is never changed.
func (f Frame) RGBA() (*image.RGBA, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height
	for i := 0; i < n; i++ {
		dst := img.Pix[i*4 : i*4+4 : i*4+4]
		switch f.Format {
		case FormatBGR:
			src := f.Data[i*3 : i*3+3 : i*3+3]
			dst[0], dst[1], dst[2] = src[2], src[1], src[0]
		case FormatRGB:
			src := f.Data[i*3 : i*3+3 : i*3+3]
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		case FormatGray:
			g := f.Data[i]
			dst[0], dst[1], dst[2] = g, g, g
		}
		dst[3] = 0xff
	}
	return img, nil
}
