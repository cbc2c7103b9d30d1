// Package recognition defines the face data exchanged between the embedding
// provider, the gallery and the frame matcher, together with the distance
// metric used to compare faces.
package recognition

import (
	"errors"
	"image"
	"math"
)

// DescriptorSize is the length of a dlib face descriptor.
const DescriptorSize = 128

// Descriptor is a 128-dimensional face embedding.
type Descriptor [DescriptorSize]float32

// Box is a face bounding box in pixel coordinates.
type Box struct {
	Top, Right, Bottom, Left int
}

// Face is one detected face: where it is and what it looks like.
type Face struct {
	Box        Box
	Descriptor Descriptor
}

// Provider turns an RGB image into zero or more faces, one descriptor per
// detected box, in detection order.
type Provider interface {
	Recognize(img image.Image) ([]Face, error)
}

// ErrModelNotLoaded is returned when models are not loaded.
var ErrModelNotLoaded = errors.New("recognition models not loaded")

// Scale multiplies every coordinate by f, rounding to the nearest pixel.
func (b Box) Scale(f float64) Box {
	s := func(v int) int { return int(math.Round(float64(v) * f)) }
	return Box{Top: s(b.Top), Right: s(b.Right), Bottom: s(b.Bottom), Left: s(b.Left)}
}

// Rect converts the box into an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// BoxFromRect converts an image.Rectangle into a Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y, Left: r.Min.X}
}

// EuclideanDistance calculates the Euclidean distance between two descriptors.
func EuclideanDistance(d1, d2 Descriptor) float64 {
	var sum float64
	for i := range d1 {
		diff := float64(d1[i] - d2[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// DescriptorFromFloat64s narrows v into a Descriptor. It reports false when
// v does not have exactly DescriptorSize elements.
func DescriptorFromFloat64s(v []float64) (Descriptor, bool) {
	var d Descriptor
	if len(v) != DescriptorSize {
		return d, false
	}
	for i, x := range v {
		d[i] = float32(x)
	}
	return d, true
}
