package detector

import (
	"github.com/ayusman/landmarkscollector/internal/landmark"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbTip     = 4
	IndexMCP     = 5
	IndexTip     = 8
	MiddleMCP    = 9
	MiddleTip    = 12
	RingTip      = 16
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is one normalized hand landmark.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Type returns the landmark type for the hand's handedness. It panics when the
// handedness classification is missing: the hand model always reports one per
// detected hand, so its absence means the adapter is broken.
func (h HandLandmarks) Type() landmark.Type {
	switch h.Handedness {
	case "":
		panic("detector: hand landmarks without handedness classification")
	case "Right":
		return landmark.RightHand
	default:
		return landmark.LeftHand
	}
}

// HandsToLandmarks flattens detected hands into landmarks.
func HandsToLandmarks(hands []HandLandmarks) []landmark.Landmark {
	out := make([]landmark.Landmark, 0, len(hands)*NumLandmarks)
	for _, h := range hands {
		t := h.Type()
		for i, p := range h.Points {
			out = append(out, landmark.Landmark{
				Type:  t,
				Index: uint(i),
				X:     float32(p.X),
				Y:     float32(p.Y),
				Z:     float32(p.Z),
			})
		}
	}
	return out
}
