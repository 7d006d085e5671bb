package detector

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/landmarkscollector/internal/landmark"
)

const epsilon = 1e-6

func TestHandsToLandmarks(t *testing.T) {
	t.Run("maps handedness to type", func(t *testing.T) {
		lms := HandsToLandmarks([]HandLandmarks{OpenPalmLandmarks("Right"), OpenPalmLandmarks("Left")})
		if len(lms) != 2*NumLandmarks {
			t.Fatalf("expected %d landmarks, got %d", 2*NumLandmarks, len(lms))
		}
		if lms[0].Type != landmark.RightHand || lms[NumLandmarks].Type != landmark.LeftHand {
			t.Errorf("types = %s, %s", lms[0].Type, lms[NumLandmarks].Type)
		}
		for i := 0; i < NumLandmarks; i++ {
			if lms[i].Index != uint(i) {
				t.Errorf("landmark %d has index %d", i, lms[i].Index)
			}
		}
		if math.Abs(float64(lms[Wrist].Y)-0.8) > epsilon {
			t.Errorf("wrist y = %f, want 0.8", lms[Wrist].Y)
		}
	})

	t.Run("no hands", func(t *testing.T) {
		if lms := HandsToLandmarks(nil); len(lms) != 0 {
			t.Errorf("expected no landmarks, got %d", len(lms))
		}
	})

	t.Run("missing handedness panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for hand without handedness")
			}
		}()
		HandsToLandmarks([]HandLandmarks{{Score: 0.9}})
	})
}

func TestDecodeHands(t *testing.T) {
	line := []byte(`{"hands":[{"handedness":"Right","score":0.9,"points":[{"x":0.1,"y":0.2,"z":-0.05}]}]}` + "\n")

	res, err := decodeHands(line, 640, 480)
	if err != nil {
		t.Fatalf("decodeHands() error = %v", err)
	}
	if res.Width != 640 || res.Height != 480 {
		t.Errorf("size = %dx%d", res.Width, res.Height)
	}
	if len(res.Landmarks) != NumLandmarks {
		t.Fatalf("expected %d landmarks, got %d", NumLandmarks, len(res.Landmarks))
	}
	first := res.Landmarks[0]
	if first.Type != landmark.RightHand || math.Abs(float64(first.X)-0.1) > epsilon || math.Abs(float64(first.Z)+0.05) > epsilon {
		t.Errorf("first = %+v", first)
	}

	if _, err := decodeHands([]byte(`{"error":"model not loaded"}`), 1, 1); err == nil {
		t.Error("expected service error")
	}
	if _, err := decodeHands([]byte(`not json`), 1, 1); err == nil {
		t.Error("expected parse error")
	}
}

func TestDecodeFacePose(t *testing.T) {
	line := []byte(`{"width":200,"height":100,"face":[{"x":50,"y":25,"z":10}],"pose":[{"x":100,"y":50,"z":0},{"x":20,"y":10,"z":4}]}`)

	res, err := decodeFacePose(line)
	if err != nil {
		t.Fatalf("decodeFacePose() error = %v", err)
	}
	if len(res.Landmarks) != 3 {
		t.Fatalf("expected 3 landmarks, got %d", len(res.Landmarks))
	}

	face := res.Landmarks[0]
	// x = 50/200, y = 25/100, z = 0.25 * 50 / 10
	if face.Type != landmark.Face || math.Abs(float64(face.X)-0.25) > epsilon ||
		math.Abs(float64(face.Y)-0.25) > epsilon || math.Abs(float64(face.Z)-1.25) > epsilon {
		t.Errorf("face = %+v", face)
	}

	pose := res.Filter(landmark.Pose)
	if len(pose) != 2 || pose[1].Index != 1 {
		t.Fatalf("pose = %+v", pose)
	}
	if pose[0].Z != 0 {
		t.Errorf("zero raw z should give zero z, got %f", pose[0].Z)
	}

	t.Run("too many pose points", func(t *testing.T) {
		points := `{"x":1,"y":1,"z":1}`
		body := `{"width":10,"height":10,"pose":[` + points
		for i := 1; i < landmark.PoseCount+1; i++ {
			body += "," + points
		}
		body += "]}"
		if _, err := decodeFacePose([]byte(body)); err == nil {
			t.Error("expected error for pose index out of range")
		}
	})

	t.Run("missing frame size", func(t *testing.T) {
		if _, err := decodeFacePose([]byte(`{"face":[{"x":1,"y":1,"z":1}]}`)); err == nil {
			t.Error("expected error without frame size")
		}
	})
}

func TestMockSource(t *testing.T) {
	m := NewMockSource(SourceHands)
	if m.Name() != SourceHands {
		t.Errorf("Name() = %q", m.Name())
	}

	res, err := m.Detect(nil, false)
	if err != nil || len(res.Landmarks) != 0 {
		t.Errorf("Detect() = %+v, %v", res, err)
	}

	m.SetResult(MockResult(640, 480))
	res, _ = m.Detect(nil, true)
	if len(res.Landmarks) != landmark.PerFrame {
		t.Errorf("MockResult has %d landmarks, want %d", len(res.Landmarks), landmark.PerFrame)
	}

	m.SetError(errors.New("camera unplugged"))
	if _, err := m.Detect(nil, false); err == nil {
		t.Error("expected error")
	}
	if m.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", m.Calls())
	}

	m.Close()
	if !m.Closed() {
		t.Error("Closed() should be true after Close")
	}
}

func TestFindScriptMissing(t *testing.T) {
	if _, err := NewHandsSource(Config{Script: ""}, nil); err == nil {
		// a script may exist on a developer machine
		t.Skip("hands_service.py found on this machine")
	}
	if _, err := newService("nope", "", DefaultConfig(), nil); err == nil {
		t.Error("expected error for missing script")
	}
}

func TestUnavailable(t *testing.T) {
	setupErr := errors.New("mediapipe not installed")
	src := Unavailable(SourceHands, setupErr)

	if src.Name() != SourceHands {
		t.Errorf("Name() = %q, want %q", src.Name(), SourceHands)
	}
	if _, err := src.Detect(nil, true); !errors.Is(err, setupErr) {
		t.Errorf("Detect() error = %v, want %v", err, setupErr)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
