package matcher

import (
	"image"

	"github.com/MrCodeEU/facewatch/pkg/camera"
	"github.com/MrCodeEU/facewatch/pkg/recognition"
)

// stubProvider returns fixed faces and remembers the last image it saw.
type stubProvider struct {
	faces []recognition.Face
	err   error
	last  image.Image
	calls int
}

func (s *stubProvider) Recognize(img image.Image) ([]recognition.Face, error) {
	s.calls++
	s.last = img
	if s.err != nil {
		return nil, s.err
	}
	return s.faces, nil
}

// solidFrame builds a BGR frame filled with one colour.
func solidFrame(width, height int, b, g, r byte) camera.Frame {
	data := make([]byte, width*height*3)
	for i := 0; i < len(data); i += 3 {
		data[i], data[i+1], data[i+2] = b, g, r
	}
	return camera.Frame{Data: data, Width: width, Height: height, Format: camera.FormatBGR}
}

func descriptorAt(distance float32) recognition.Descriptor {
	return recognition.Descriptor{0: distance}
}
