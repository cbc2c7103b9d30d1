// Package opencv renders match results in an OpenCV HighGUI window.
package opencv

import (
	"fmt"

	"github.com/MrCodeEU/facewatch/pkg/camera"
	"github.com/MrCodeEU/facewatch/pkg/display"
	"github.com/MrCodeEU/facewatch/pkg/matcher"
	"gocv.io/x/gocv"
)

// Window shows frames with boxes and labels and watches for the stop key.
type Window struct {
	window  *gocv.Window
	stopKey int
}

// NewWindow opens a window with the given title.
func NewWindow(title, stopKey string) (*Window, error) {
	key, err := display.ParseStopKey(stopKey)
	if err != nil {
		return nil, err
	}
	return &Window{window: gocv.NewWindow(title), stopKey: key}, nil
}

// Present draws results over frame and shows it. It returns true once the
// stop key is pressed.
func (w *Window) Present(frame camera.Frame, results []matcher.Result) (bool, error) {
	img, err := toMat(frame)
	if err != nil {
		return false, err
	}
	defer img.Close()

	for _, o := range display.Layout(results) {
		gocv.Rectangle(&img, o.Box, display.BoxColor, display.BoxThickness)
		gocv.Rectangle(&img, o.LabelBar, display.BoxColor, -1)
		gocv.PutText(&img, o.Label, o.TextOrigin, gocv.FontHersheyDuplex, display.FontScale, display.TextColor, 1)
	}

	w.window.IMShow(img)
	return display.IsStop(w.window.WaitKey(1), w.stopKey), nil
}

// Poll reads pending key presses without drawing. It returns true once the
// stop key is pressed.
func (w *Window) Poll() (bool, error) {
	return display.IsStop(w.window.WaitKey(1), w.stopKey), nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}

func toMat(frame camera.Frame) (gocv.Mat, error) {
	if err := frame.Validate(); err != nil {
		return gocv.Mat{}, err
	}

	switch frame.Format {
	case camera.FormatBGR:
		return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	case camera.FormatRGB, camera.FormatGray:
		typ, code := gocv.MatTypeCV8UC3, gocv.ColorRGBToBGR
		if frame.Format == camera.FormatGray {
			typ, code = gocv.MatTypeCV8UC1, gocv.ColorGrayToBGR
		}
		src, err := gocv.NewMatFromBytes(frame.Height, frame.Width, typ, frame.Data)
		if err != nil {
			return gocv.Mat{}, err
		}
		defer src.Close()
		dst := gocv.NewMat()
		gocv.CvtColor(src, &dst, code)
		return dst, nil
	}
	return gocv.Mat{}, fmt.Errorf("%w: %s", camera.ErrBadFrame, frame.Format)
}
