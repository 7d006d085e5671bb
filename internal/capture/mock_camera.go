package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrames is returned by MockCamera when the active device has nothing left to play.
var ErrNoFrames = errors.New("no frames left")

type mockDevice struct {
	present bool
	frames  []*gocv.Mat
	next    int
}

// MockCamera plays fixed frame sequences, one per device. Both devices start with the
// same sequence; SetBackFrames gives the back device its own.
type MockCamera struct {
	mu        sync.Mutex
	front     mockDevice
	back      mockDevice
	facing    bool // true for front
	loop      bool
	open      bool
	fps       int
	reads     int
	switches  int
	switchErr error
}

// NewMockCamera creates a front-only camera playing frames. With loop set, playback
// restarts after the last frame.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		front:  mockDevice{present: true, frames: frames},
		back:   mockDevice{frames: frames},
		facing: true,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (c *MockCamera) active() *mockDevice {
	if c.facing {
		return &c.front
	}
	return &c.back
}

// Open starts playback on the active device from its first frame.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dev := c.active()
	if !dev.present {
		return fmt.Errorf("failed to open camera: %s device missing", facingName(c.facing))
	}
	dev.next = 0
	c.open = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// ReadFrame returns a clone of the active device's next frame.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	dev := c.active()
	if dev.next >= len(dev.frames) {
		if !c.loop || len(dev.frames) == 0 {
			return nil, ErrNoFrames
		}
		dev.next = 0
	}

	frame := dev.frames[dev.next].Clone()
	dev.next++
	c.reads++
	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fps > 0 {
		c.fps = fps
	}
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *MockCamera) Available() (front, back bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.front.present, c.back.present
}

func (c *MockCamera) FrontFacing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// SwitchCamera selects a device. An open camera keeps playing from the new device's
// current position.
func (c *MockCamera) SwitchCamera(frontFacing bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.switchErr != nil {
		return c.switchErr
	}
	if c.facing == frontFacing {
		return nil
	}
	if c.open {
		dev := &c.back
		if frontFacing {
			dev = &c.front
		}
		if !dev.present {
			return fmt.Errorf("failed to switch camera: %s device missing", facingName(frontFacing))
		}
	}
	c.facing = frontFacing
	c.switches++
	return nil
}

// SetDevices sets which devices are present. The camera faces front when a front
// device exists and back otherwise.
func (c *MockCamera) SetDevices(front, back bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.front.present, c.back.present = front, back
	c.facing = front
}

// SetBackFrames gives the back device its own sequence.
func (c *MockCamera) SetBackFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.back.frames = frames
	c.back.next = 0
}

// SetSwitchError makes SwitchCamera fail with err.
func (c *MockCamera) SetSwitchError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.switchErr = err
}

// Switches returns how many times the facing changed.
func (c *MockCamera) Switches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switches
}

// Reads returns how many frames were handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func facingName(front bool) string {
	if front {
		return "front"
	}
	return "back"
}
