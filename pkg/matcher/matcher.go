// Package matcher turns a camera frame into labelled face boxes by
// detecting faces on a downscaled copy and matching each embedding against
// the gallery.
package matcher

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/MrCodeEU/facewatch/pkg/camera"
	"github.com/MrCodeEU/facewatch/pkg/gallery"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/MrCodeEU/facewatch/pkg/recognition"
	"golang.org/x/image/draw"
)

// DefaultScale is the linear downscale applied before detection.
const DefaultScale = 0.25

// DefaultThreshold is dlib's calibrated acceptance distance.
const DefaultThreshold = 0.6

// ErrEmbeddingCompute is returned when a frame cannot be turned into
// embeddings. The frame should be skipped.
var ErrEmbeddingCompute = errors.New("embedding computation failed")

// Result is one labelled face in original frame coordinates.
type Result struct {
	Box   recognition.Box
	Label string
}

// Matcher matches frames against a gallery.
type Matcher struct {
	provider  recognition.Provider
	threshold float64
	scale     float64
}

// New returns a Matcher. Non-positive threshold or scale values, and scales
// above 1, fall back to the defaults.
func New(provider recognition.Provider, threshold, scale float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if scale <= 0 || scale > 1 {
		scale = DefaultScale
	}
	return &Matcher{provider: provider, threshold: threshold, scale: scale}
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match detects faces in frame and labels each one. Results are in
// detection order with boxes mapped back to frame coordinates.
func (m *Matcher) Match(frame camera.Frame, g *gallery.Gallery) ([]Result, error) {
	img, err := frame.RGBA()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingCompute, err)
	}

	faces, err := m.provider.Recognize(downscale(img, m.scale))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingCompute, err)
	}

	results := make([]Result, len(faces))
	for i, f := range faces {
		dec := Decide(g, f.Descriptor, m.threshold)
		results[i] = Result{
			Box:   f.Box.Scale(1 / m.scale),
			Label: dec.Label,
		}
		logging.WithFields(logging.Fields{
			"label":    dec.Label,
			"distance": dec.Distance,
		}).Debug("Face matched")
	}
	return results, nil
}

// downscale resizes img by scale using bilinear interpolation. The result
// is at least 1x1.
func downscale(img image.Image, scale float64) image.Image {
	if scale == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
