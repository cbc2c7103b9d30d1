// Package display turns match results into on-screen overlays. Drawing
// itself happens in the opencv subpackage; this package holds the layout
// rules and a headless presenter.
package display

import (
	"fmt"
	"image"
	"image/color"

	"github.com/MrCodeEU/facewatch/pkg/camera"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/MrCodeEU/facewatch/pkg/matcher"
)

// Overlay geometry.
const (
	BoxThickness   = 2
	LabelBarHeight = 35
	TextInset      = 6
	FontScale      = 1.0
)

var (
	BoxColor  = color.RGBA{R: 255, A: 255}
	TextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Overlay is what gets drawn for one result.
type Overlay struct {
	Box        image.Rectangle
	LabelBar   image.Rectangle
	TextOrigin image.Point
	Label      string
}

// Layout computes overlays for results, in order. The label bar is a filled
// strip along the bottom edge of the box; the label sits inside it.
func Layout(results []matcher.Result) []Overlay {
	out := make([]Overlay, len(results))
	for i, r := range results {
		b := r.Box
		out[i] = Overlay{
			Box:        b.Rect(),
			LabelBar:   image.Rect(b.Left, b.Bottom-LabelBarHeight, b.Right, b.Bottom),
			TextOrigin: image.Pt(b.Left+TextInset, b.Bottom-TextInset),
			Label:      r.Label,
		}
	}
	return out
}

// ParseStopKey returns the key code for a single-character stop key.
func ParseStopKey(key string) (int, error) {
	if len(key) != 1 {
		return 0, fmt.Errorf("stop key must be a single character, got %q", key)
	}
	return int(key[0]), nil
}

// IsStop reports whether a key code returned by a GUI wait call matches
// the stop key. Only the low byte is compared.
func IsStop(code, stop int) bool {
	return code >= 0 && code&0xFF == stop
}

// Headless is a presenter for runs without a window. It logs labelled
// faces and never asks to stop; the run ends on a signal.
type Headless struct {
	frames int
}

// NewHeadless returns a headless presenter.
func NewHeadless() *Headless {
	return &Headless{}
}

// Present logs the results for the frame.
func (h *Headless) Present(frame camera.Frame, results []matcher.Result) (bool, error) {
	h.frames++
	if len(results) == 0 {
		return false, nil
	}
	labels := make([]string, len(results))
	for i, r := range results {
		labels[i] = r.Label
	}
	logging.WithFields(logging.Fields{
		"frame":  h.frames,
		"faces":  len(results),
		"labels": labels,
	}).Debug("Frame presented")
	return false, nil
}

// Poll never asks to stop.
func (h *Headless) Poll() (bool, error) {
	return false, nil
}

// Close is a no-op.
func (h *Headless) Close() error {
	return nil
}
