package gallery

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/MrCodeEU/facewatch/pkg/recognition"
	"github.com/MrCodeEU/facewatch/pkg/storage"
)

type providerFunc func(img image.Image) ([]recognition.Face, error)

func (f providerFunc) Recognize(img image.Image) ([]recognition.Face, error) {
	return f(img)
}

type memorySource struct {
	records []storage.Record
	err     error
}

func (m *memorySource) All(ctx context.Context) ([]storage.Record, error) {
	return m.records, m.err
}

// pngWithMarker encodes a 4x4 image whose top-left red channel carries v, so
// the colour provider below can tell reference images apart.
func pngWithMarker(t *testing.T, v uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{R: v, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// markerProvider returns one face whose descriptor's first element is the
// marker, or no face when the marker is zero.
func markerProvider() providerFunc {
	return func(img image.Image) ([]recognition.Face, error) {
		r, _, _, _ := img.At(0, 0).RGBA()
		marker := float32(r >> 8)
		if marker == 0 {
			return nil, nil
		}
		return []recognition.Face{{Descriptor: recognition.Descriptor{0: marker}}}, nil
	}
}
