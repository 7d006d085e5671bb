package server

import (
	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/session"
)

// StateView is the JSON form of a session phase.
type StateView struct {
	Phase         string           `json:"phase"`
	Settings      session.Settings `json:"settings"`
	TotalGestures int              `json:"total_gestures"`
	GestureIndex  int              `json:"gesture_index,omitempty"`
	DelayTicks    *int             `json:"delay_ticks,omitempty"`
	TimeLeft      *int             `json:"time_left,omitempty"`
	Paused        bool             `json:"paused,omitempty"`
	Progress      *int             `json:"progress,omitempty"`
	HandFrames    uint             `json:"hand_frames,omitempty"`
	FaceFrames    uint             `json:"face_pose_frames,omitempty"`
	Completed     bool             `json:"completed,omitempty"`
	Message       string           `json:"message,omitempty"`
	Rates         gesture.Rates    `json:"rates,omitempty"`
}

// NewStateView builds the view of s.
func NewStateView(s session.State, totalGestures int) StateView {
	v := StateView{
		Phase:         s.Phase(),
		Settings:      session.SettingsOf(s),
		TotalGestures: totalGestures,
		GestureIndex:  session.GestureIndexOf(s),
	}

	switch s := s.(type) {
	case session.WaitingForConfig:
		v.Rates = s.Rates
		v.Completed = s.Completed
		if s.Completed {
			v.Message = "session complete: confirm the gesture name to record again"
		}
	case session.PreparingForGesture:
		v.DelayTicks = &s.DelayTicks
		v.Paused = s.Paused
	case session.RecordingMotion:
		v.TimeLeft = &s.TimeLeft
		v.Paused = s.Paused
		v.HandFrames = s.Hands.Frames()
		v.FaceFrames = s.FacePose.Frames()
	case session.SavingMotion:
		v.Progress = &s.Progress
	case session.ExportFailed:
		v.Message = s.Message
	}
	return v
}
