package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/landmarkscollector/internal/landmark"
)

// MockSource is a test implementation of the Source interface.
// It allows tests to control the detection results.
type MockSource struct {
	name   string
	mu     sync.Mutex
	result landmark.Result
	err    error
	calls  int
	closed bool
}

// NewMockSource creates a new MockSource with the given name.
func NewMockSource(name string) *MockSource {
	return &MockSource{name: name}
}

// SetResult sets the result that will be returned by Detect.
func (m *MockSource) SetResult(r landmark.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = r
}

// SetError sets the error that will be returned by Detect.
func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Name implements Source.
func (m *MockSource) Name() string { return m.name }

// Detect returns the pre-configured result or error.
func (m *MockSource) Detect(frame *gocv.Mat, frontFacing bool) (landmark.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return landmark.Result{}, m.err
	}
	return m.result, nil
}

// Close implements Source.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// OpenPalmLandmarks returns a preset hand with all fingers extended upward.
func OpenPalmLandmarks(handedness string) HandLandmarks {
	hand := HandLandmarks{Handedness: handedness, Score: 0.95}
	hand.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	// five fingers of four joints each, fanned out around the wrist
	for finger := 0; finger < 5; finger++ {
		baseX := 0.40 + 0.05*float64(finger)
		for joint := 0; joint < 4; joint++ {
			hand.Points[1+finger*4+joint] = Point3D{
				X: baseX,
				Y: 0.70 - 0.10*float64(joint),
				Z: -0.01 * float64(joint),
			}
		}
	}
	return hand
}

// MockResult returns a complete frame: both hands, full face mesh and pose.
func MockResult(width, height int) landmark.Result {
	lms := HandsToLandmarks([]HandLandmarks{OpenPalmLandmarks("Right"), OpenPalmLandmarks("Left")})
	for _, t := range []landmark.Type{landmark.Face, landmark.Pose} {
		for i := 0; i < t.Count(); i++ {
			v := float32(i) / float32(t.Count())
			lms = append(lms, landmark.Landmark{Type: t, Index: uint(i), X: v, Y: 1 - v, Z: 0.1})
		}
	}
	return landmark.Result{Landmarks: lms, Width: width, Height: height}
}
