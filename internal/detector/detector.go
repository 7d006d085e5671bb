// Package detector adapts the external landmark models into landmark sources.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/landmarkscollector/internal/landmark"
)

// Source names used in logs, metrics and DetectorFailed events.
const (
	SourceHands    = "hands"
	SourceFacePose = "face_pose"
)

// Source is one landmark source adapter. Detect is called once per captured frame
// from a single goroutine, so results come back in frame order.
type Source interface {
	// Name identifies the source.
	Name() string

	// Detect analyzes a video frame. frontFacing tells the source that the frame
	// comes from a front camera and must be mirrored.
	Detect(frame *gocv.Mat, frontFacing bool) (landmark.Result, error)

	// Close releases any resources held by the source.
	Close() error
}

// Config holds configuration options for the MediaPipe services.
type Config struct {
	// Python is the interpreter; empty means a virtualenv python or python3.
	Python string

	// Script is the service script path; empty means auto-detect.
	Script string

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// IdleTimeout stops the service after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}

// unavailable is a Source whose model could not be set up. Every Detect fails with
// the setup error, so the failure reaches the session like any other detector error.
type unavailable struct {
	name string
	err  error
}

// Unavailable returns a Source that always fails with err.
func Unavailable(name string, err error) Source {
	return unavailable{name: name, err: err}
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) Detect(*gocv.Mat, bool) (landmark.Result, error) {
	return landmark.Result{}, u.err
}

func (u unavailable) Close() error { return nil }
