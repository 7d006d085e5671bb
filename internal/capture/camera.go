// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

// NoDevice marks a camera slot with no device.
const NoDevice = -1

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool

	// Available probes which of the front and back devices can be opened.
	Available() (front, back bool)
	// FrontFacing reports whether the front device is selected.
	FrontFacing() bool
	// SwitchCamera selects the front or back device, reopening it if running.
	SwitchCamera(frontFacing bool) error
}

// Config selects the capture devices.
type Config struct {
	FrontID int
	BackID  int // NoDevice when there is only one camera
	FPS     int
}

// cameraImpl manages video capture from a front and an optional back device.
type cameraImpl struct {
	config  Config
	front   bool
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a new Camera. The front device is selected initially.
func NewCamera(config Config) Camera {
	fps := config.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &cameraImpl{
		config: config,
		front:  true,
		fps:    fps,
	}
}

func (c *cameraImpl) deviceID() int {
	if c.front {
		return c.config.FrontID
	}
	return c.config.BackID
}

// Open opens the selected device.
// It sets the resolution to 640x480 for performance.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open()
}

func (c *cameraImpl) open() error {
	if c.running {
		return nil
	}

	id := c.deviceID()
	if id < 0 {
		return fmt.Errorf("no %s camera configured", c.facingName())
	}

	capture, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return fmt.Errorf("open %s camera %d: %w", c.facingName(), id, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

func (c *cameraImpl) close() error {
	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Available probes the configured devices. The selected device counts as available
// while it is open.
func (c *cameraImpl) Available() (front, back bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	probe := func(id int, selected bool) bool {
		if id < 0 {
			return false
		}
		if selected && c.running {
			return true
		}
		vc, err := gocv.OpenVideoCapture(id)
		if err != nil {
			return false
		}
		defer vc.Close()
		return vc.IsOpened()
	}
	return probe(c.config.FrontID, c.front), probe(c.config.BackID, !c.front)
}

// FrontFacing reports whether the front device is selected.
func (c *cameraImpl) FrontFacing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.front
}

// SwitchCamera selects a device. A running camera is reopened on the new device;
// if that fails the previous device is restored.
func (c *cameraImpl) SwitchCamera(frontFacing bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.front == frontFacing {
		return nil
	}
	if !c.running {
		c.front = frontFacing
		return nil
	}

	if err := c.close(); err != nil {
		return err
	}
	c.front = frontFacing
	if err := c.open(); err != nil {
		c.front = !frontFacing
		if rerr := c.open(); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func (c *cameraImpl) facingName() string {
	return facingName(c.front)
}
