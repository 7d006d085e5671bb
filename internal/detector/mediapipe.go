package detector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/ayusman/landmarkscollector/internal/landmark"
)

// HandsSource detects hands through the MediaPipe hand landmarker service.
// Coordinates come back normalized.
type HandsSource struct {
	svc *service
}

// NewHandsSource creates the hands source. The Python process is started lazily on
// the first frame.
func NewHandsSource(config Config, log *slog.Logger) (*HandsSource, error) {
	svc, err := newService("hands", config.Script, config, log,
		"--max-hands", strconv.Itoa(config.MaxHands),
		"--min-confidence", strconv.FormatFloat(config.MinConfidence, 'f', -1, 64),
	)
	if err != nil {
		return nil, err
	}
	return &HandsSource{svc: svc}, nil
}

// Name implements Source.
func (s *HandsSource) Name() string { return SourceHands }

// Detect implements Source.
func (s *HandsSource) Detect(frame *gocv.Mat, frontFacing bool) (landmark.Result, error) {
	data, err := encodeFrame(frame, frontFacing)
	if err != nil {
		return landmark.Result{}, err
	}
	line, err := s.svc.roundTrip(data)
	if err != nil {
		return landmark.Result{}, err
	}
	return decodeHands(line, frame.Cols(), frame.Rows())
}

// Close implements Source.
func (s *HandsSource) Close() error {
	return s.svc.close()
}

type handsResponse struct {
	Hands []HandLandmarks `json:"hands"`
	Error string          `json:"error,omitempty"`
}

func decodeHands(line []byte, width, height int) (landmark.Result, error) {
	var resp handsResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return landmark.Result{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return landmark.Result{}, fmt.Errorf("hands service: %s", resp.Error)
	}
	return landmark.Result{
		Landmarks: HandsToLandmarks(resp.Hands),
		Width:     width,
		Height:    height,
	}, nil
}

// FacePoseSource detects the face mesh and body pose through one service.
// Coordinates come back in pixels and are normalized here.
type FacePoseSource struct {
	svc *service
}

// NewFacePoseSource creates the face and pose source. config.Script overrides the
// auto-detected face_pose_service.py.
func NewFacePoseSource(config Config, log *slog.Logger) (*FacePoseSource, error) {
	svc, err := newService("face_pose", config.Script, config, log,
		"--min-confidence", strconv.FormatFloat(config.MinConfidence, 'f', -1, 64),
	)
	if err != nil {
		return nil, err
	}
	return &FacePoseSource{svc: svc}, nil
}

// Name implements Source.
func (s *FacePoseSource) Name() string { return SourceFacePose }

// Detect implements Source.
func (s *FacePoseSource) Detect(frame *gocv.Mat, frontFacing bool) (landmark.Result, error) {
	data, err := encodeFrame(frame, frontFacing)
	if err != nil {
		return landmark.Result{}, err
	}
	line, err := s.svc.roundTrip(data)
	if err != nil {
		return landmark.Result{}, err
	}
	return decodeFacePose(line)
}

// Close implements Source.
func (s *FacePoseSource) Close() error {
	return s.svc.close()
}

type pixelPoint struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

type facePoseResponse struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Face   []pixelPoint `json:"face"`
	Pose   []pixelPoint `json:"pose"`
	Error  string       `json:"error,omitempty"`
}

func decodeFacePose(line []byte) (landmark.Result, error) {
	var resp facePoseResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return landmark.Result{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return landmark.Result{}, fmt.Errorf("face_pose service: %s", resp.Error)
	}

	out := landmark.Result{Width: resp.Width, Height: resp.Height}
	for _, group := range []struct {
		t      landmark.Type
		points []pixelPoint
	}{
		{landmark.Face, resp.Face},
		{landmark.Pose, resp.Pose},
	} {
		for i, p := range group.points {
			l, err := landmark.FromPixels(group.t, uint(i), p.X, p.Y, p.Z, resp.Width, resp.Height)
			if err != nil {
				return landmark.Result{}, err
			}
			out.Landmarks = append(out.Landmarks, l)
		}
	}
	return out, nil
}
