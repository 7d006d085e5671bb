package session

import (
	"github.com/ayusman/landmarkscollector/internal/export"
	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/landmark"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

// Event is an input to the reducer: a user action or the result of a command.
type Event interface {
	// Name identifies the event kind in logs and metrics.
	Name() string
}

// CamerasAvailable reports which cameras the capture layer found.
type CamerasAvailable struct {
	Cameras Cameras
}

// DirectoryChosen sets the output directory.
type DirectoryChosen struct {
	Directory string
}

// GestureNameChanged sets the gesture name. An empty name unsets it.
type GestureNameChanged struct {
	Gesture string
}

// ToggleCamera switches between front and back camera.
type ToggleCamera struct{}

// StartPressed starts a recording cycle.
type StartPressed struct{}

// PausePressed pauses the countdown or capture.
type PausePressed struct{}

// ResumePressed resumes a paused countdown or capture.
type ResumePressed struct{}

// StopPressed abandons the recording cycle.
type StopPressed struct{}

// RetryPressed re-issues a failed export.
type RetryPressed struct{}

// HandResult is one hands detector callback.
type HandResult struct {
	Result landmark.Result
}

// FacePoseResult is one combined face and pose detector callback.
type FacePoseResult struct {
	Result landmark.Result
}

// PrepareTick carries the remaining countdown ticks.
type PrepareTick struct {
	DelayTicks int
}

// RecordingTick carries the remaining capture ticks.
type RecordingTick struct {
	TimeLeft int
}

// SaveProgress is an export progress update in percent.
type SaveProgress struct {
	Percent int
}

// Saved reports a finished export.
type Saved struct {
	Handle export.Handle
	Rows   int
	Frames int
}

// SaveFailed reports a failed export and hands the recordings back.
type SaveFailed struct {
	Message  string
	Hands    recording.Recording
	FacePose recording.Recording
}

// RatesUpdated carries fresh classifier output.
type RatesUpdated struct {
	Rates gesture.Rates
}

// DetectorFailed reports a landmark source error.
type DetectorFailed struct {
	Source  string
	Message string
}

func (CamerasAvailable) Name() string   { return "cameras_available" }
func (DirectoryChosen) Name() string    { return "directory_chosen" }
func (GestureNameChanged) Name() string { return "gesture_name_changed" }
func (ToggleCamera) Name() string       { return "toggle_camera" }
func (StartPressed) Name() string       { return "start_pressed" }
func (PausePressed) Name() string       { return "pause_pressed" }
func (ResumePressed) Name() string      { return "resume_pressed" }
func (StopPressed) Name() string        { return "stop_pressed" }
func (RetryPressed) Name() string       { return "retry_pressed" }
func (HandResult) Name() string         { return "hand_result" }
func (FacePoseResult) Name() string     { return "face_pose_result" }
func (PrepareTick) Name() string        { return "prepare_tick" }
func (RecordingTick) Name() string      { return "recording_tick" }
func (SaveProgress) Name() string       { return "save_progress" }
func (Saved) Name() string              { return "saved" }
func (SaveFailed) Name() string         { return "save_failed" }
func (RatesUpdated) Name() string       { return "rates_updated" }
func (DetectorFailed) Name() string     { return "detector_failed" }
