// Package landmark defines the normalized keypoints produced by the hand, face and pose detectors.
package landmark

import "fmt"

// Type identifies which detector produced a landmark and which body part it belongs to.
type Type int

const (
	// Face is a face mesh point.
	Face Type = iota
	// RightHand is a joint of the right hand.
	RightHand
	// LeftHand is a joint of the left hand.
	LeftHand
	// Pose is a body pose joint.
	Pose
)

// Fixed landmark counts per type.
const (
	FaceCount = 468
	HandCount = 21
	PoseCount = 33
)

// Order is the canonical type order used by the CSV export and the classifier tensor.
// Changing it breaks every dataset recorded so far.
var Order = [...]Type{Face, RightHand, LeftHand, Pose}

// PerFrame is the number of landmarks expected in one fully detected frame.
const PerFrame = FaceCount + 2*HandCount + PoseCount

// Label returns the label written to the CSV type column.
func (t Type) Label() string {
	switch t {
	case Face:
		return "face"
	case RightHand:
		return "right_hand"
	case LeftHand:
		return "left_hand"
	case Pose:
		return "pose"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return t.Label()
}

// Count returns the fixed number of landmarks for the type.
func (t Type) Count() int {
	switch t {
	case Face:
		return FaceCount
	case RightHand, LeftHand:
		return HandCount
	case Pose:
		return PoseCount
	}
	return 0
}

// ParseType maps a CSV label back to its Type.
func ParseType(label string) (Type, error) {
	for _, t := range Order {
		if t.Label() == label {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown landmark type %q", label)
}

// Landmark is a single normalized keypoint. Values are immutable once constructed.
type Landmark struct {
	Type  Type    `json:"type"`
	Index uint    `json:"index"`
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Z     float32 `json:"z"`
}

// New builds a landmark from already normalized coordinates.
// It returns an error when the index is outside the type's landmark count.
func New(t Type, index uint, x, y, z float32) (Landmark, error) {
	if int(index) >= t.Count() {
		return Landmark{}, fmt.Errorf("%s landmark index %d out of range [0, %d)", t, index, t.Count())
	}
	return Landmark{Type: t, Index: index, X: x, Y: y, Z: z}, nil
}

// FromPixels builds a landmark from pixel coordinates reported by the face and pose
// detectors. x and y are divided by the frame size; z is scaled as x_raw * x_norm / z_raw
// so that it keeps the measurement unit of x and y.
//
// The z scaling is carried over from the recorded datasets and has not been checked
// against the detector's depth model.
func FromPixels(t Type, index uint, x, y, z float32, width, height int) (Landmark, error) {
	if width <= 0 || height <= 0 {
		return Landmark{}, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	nx := x / float32(width)
	ny := y / float32(height)
	var nz float32
	if z != 0 {
		nz = nx * x / z
	}
	return New(t, index, nx, ny, nz)
}

// Result is what a landmark source delivers for one captured frame.
type Result struct {
	Landmarks []Landmark `json:"landmarks"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
}

// Filter returns the landmarks of the given types, preserving order.
func (r Result) Filter(types ...Type) []Landmark {
	var out []Landmark
	for _, l := range r.Landmarks {
		for _, t := range types {
			if l.Type == t {
				out = append(out, l)
				break
			}
		}
	}
	return out
}
