package session

import (
	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

// Command is a side effect requested by the reducer and run by the Actor.
type Command interface {
	command()
}

// PrepareForGesture starts the pre-capture countdown. Ticks are emitted from
// Ticks-1 down to 0.
type PrepareForGesture struct {
	GestureIndex int
	Ticks        int
}

// StartRecording starts the capture countdown.
type StartRecording struct {
	GestureIndex int
	Ticks        int
}

// Pause takes the gate so tick loops block.
type Pause struct{}

// Resume releases the gate.
type Resume struct{}

// Stop cancels the tick loop and releases the gate.
type Stop struct{}

// Save creates the output file and exports the recordings into it.
type Save struct {
	Directory    string
	GestureName  string
	GestureIndex int
	Hands        recording.Recording
	FacePose     recording.Recording
}

// Classify runs the classifier over full windows.
type Classify struct {
	Hands    gesture.Window
	FacePose gesture.Window
}

// SwitchCamera changes the active camera.
type SwitchCamera struct {
	FrontFacing bool
}

// PersistSettings stores the settings for the next start-up.
type PersistSettings struct {
	Settings Settings
}

func (PrepareForGesture) command() {}
func (StartRecording) command()    {}
func (Pause) command()             {}
func (Resume) command()            {}
func (Stop) command()              {}
func (Save) command()              {}
func (Classify) command()          {}
func (SwitchCamera) command()      {}
func (PersistSettings) command()   {}
