package session

import (
	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

// Cameras reports which cameras are present.
type Cameras struct {
	Front bool `json:"front"`
	Back  bool `json:"back"`
}

// Any reports whether at least one camera is present.
func (c Cameras) Any() bool {
	return c.Front || c.Back
}

// Both reports whether the facing can be toggled.
func (c Cameras) Both() bool {
	return c.Front && c.Back
}

// Settings are carried unchanged through every phase of a recording cycle.
type Settings struct {
	Directory   string  `json:"directory"`
	GestureName string  `json:"gesture_name"`
	Cameras     Cameras `json:"cameras"`
	FrontFacing bool    `json:"front_facing"`
	// Status is the last user-visible message (detector failure, saved file).
	Status string `json:"status,omitempty"`
}

// Configured reports whether both directory and gesture name are set.
func (s Settings) Configured() bool {
	return s.Directory != "" && s.GestureName != ""
}

func (s Settings) settings() Settings { return s }

// State is one session phase. The set of phases is closed; every State is one of
// NoCamera, WaitingForConfig, ReadyToRecord, PreparingForGesture, RecordingMotion,
// SavingMotion or ExportFailed.
type State interface {
	// Phase returns the phase name.
	Phase() string
	settings() Settings
}

// Pausable phases accept Pause, Resume and Stop.
type Pausable interface {
	State
	IsPaused() bool
}

// SettingsOf returns the settings carried by s.
func SettingsOf(s State) Settings {
	return s.settings()
}

// NoCamera is the initial phase, before any camera is reported.
type NoCamera struct {
	Settings
}

// WaitingForConfig is the steady phase. The classifier buffer only runs here.
type WaitingForConfig struct {
	Settings
	Buffer gesture.Buffer
	Rates  gesture.Rates
	// Completed is set once the last gesture of a session is saved. Start stays
	// disabled until the user confirms the gesture name or directory again.
	Completed bool
}

// ReadyToRecord has both directory and gesture name set.
type ReadyToRecord struct {
	Settings
}

// PreparingForGesture counts down before a capture.
type PreparingForGesture struct {
	Settings
	GestureIndex int
	DelayTicks   int
	Paused       bool
}

// RecordingMotion accumulates landmarks for one capture.
type RecordingMotion struct {
	Settings
	GestureIndex int
	TimeLeft     int
	Paused       bool
	Hands        recording.Recording
	FacePose     recording.Recording
}

// SavingMotion waits for the export of one capture.
type SavingMotion struct {
	Settings
	GestureIndex int
	Progress     int
}

// ExportFailed holds a capture whose export failed so it can be retried.
type ExportFailed struct {
	Settings
	GestureIndex int
	Message      string
	Hands        recording.Recording
	FacePose     recording.Recording
}

func (NoCamera) Phase() string            { return "no_camera" }
func (WaitingForConfig) Phase() string    { return "waiting_for_config" }
func (ReadyToRecord) Phase() string       { return "ready_to_record" }
func (PreparingForGesture) Phase() string { return "preparing_for_gesture" }
func (RecordingMotion) Phase() string     { return "recording_motion" }
func (SavingMotion) Phase() string        { return "saving_motion" }
func (ExportFailed) Phase() string        { return "export_failed" }

func (s PreparingForGesture) IsPaused() bool { return s.Paused }
func (s RecordingMotion) IsPaused() bool     { return s.Paused }

// GestureIndexOf returns the 1-based gesture index of an active cycle, or 0.
func GestureIndexOf(s State) int {
	switch s := s.(type) {
	case PreparingForGesture:
		return s.GestureIndex
	case RecordingMotion:
		return s.GestureIndex
	case SavingMotion:
		return s.GestureIndex
	case ExportFailed:
		return s.GestureIndex
	}
	return 0
}
