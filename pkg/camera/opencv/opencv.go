// Package opencv implements camera.Camera on top of OpenCV's VideoCapture.
package opencv

import (
	"fmt"
	"strconv"
	"time"

	"github.com/MrCodeEU/facewatch/pkg/camera"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"gocv.io/x/gocv"
)

// Camera captures BGR frames from a V4L2 device, a numeric device index or
// any source OpenCV can open.
type Camera struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	device  string
	width   int
	height  int
	fps     int
}

// NewCamera returns an unopened camera with the given capture settings.
func NewCamera(width, height, fps int) *Camera {
	return &Camera{width: width, height: height, fps: fps}
}

// Open opens device. A purely numeric device is treated as an index.
func (c *Camera) Open(device string) error {
	if c.capture != nil {
		return nil
	}

	var source interface{} = device
	if id, err := strconv.Atoi(device); err == nil {
		source = id
	}

	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", camera.ErrCameraNotFound, device, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return fmt.Errorf("%w: %s", camera.ErrCameraNotFound, device)
	}

	c.capture = vc
	c.mat = gocv.NewMat()
	c.device = device
	c.apply()

	logging.Component("camera").Infof("Opened %s at %dx%d", device, c.width, c.height)
	return nil
}

func (c *Camera) apply() {
	if c.width > 0 && c.height > 0 {
		c.capture.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
		c.capture.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	}
	if c.fps > 0 {
		c.capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}
}

// Close releases the capture device. Closing a closed camera is a no-op.
func (c *Camera) Close() error {
	if c.capture == nil {
		return nil
	}
	_ = c.mat.Close()
	err := c.capture.Close()
	c.capture = nil
	logging.Component("camera").Debugf("Released %s", c.device)
	return err
}

// Capture reads the next frame, blocking until the device delivers one.
func (c *Camera) Capture() (camera.Frame, error) {
	if c.capture == nil {
		return camera.Frame{}, camera.ErrCameraNotOpen
	}
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return camera.Frame{}, camera.ErrNoFrame
	}

	format := camera.FormatBGR
	switch c.mat.Channels() {
	case 3:
	case 1:
		format = camera.FormatGray
	default:
		return camera.Frame{}, fmt.Errorf("%w: %d channels", camera.ErrNoFrame, c.mat.Channels())
	}

	return camera.Frame{
		Data:      c.mat.ToBytes(),
		Width:     c.mat.Cols(),
		Height:    c.mat.Rows(),
		Format:    format,
		Timestamp: time.Now(),
	}, nil
}
