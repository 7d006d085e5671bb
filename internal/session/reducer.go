package session

import (
	"fmt"
	"strings"

	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

// Reducer computes phase transitions. Reduce is pure: it never blocks, never
// touches I/O, and returns a new State instead of modifying its input.
type Reducer struct {
	config Config
}

// NewReducer creates a Reducer for the given timeline.
func NewReducer(config Config) *Reducer {
	return &Reducer{config: config.withDefaults()}
}

// Config returns the timeline the reducer was built with.
func (r *Reducer) Config() Config {
	return r.config
}

// Initial returns the start-up state.
func (r *Reducer) Initial() State {
	return NoCamera{}
}

// Reduce applies e to s. Events that do not apply to the current phase are ignored
// and s is returned unchanged with no commands.
func (r *Reducer) Reduce(s State, e Event) (State, []Command) {
	if d, ok := e.(DetectorFailed); ok {
		return withStatus(s, fmt.Sprintf("%s detector failed: %s", d.Source, d.Message)), nil
	}

	switch s := s.(type) {
	case NoCamera:
		return r.reduceNoCamera(s, e)
	case WaitingForConfig:
		return r.reduceWaiting(s, e)
	case ReadyToRecord:
		return r.reduceReady(s, e)
	case PreparingForGesture:
		return r.reducePreparing(s, e)
	case RecordingMotion:
		return r.reduceRecording(s, e)
	case SavingMotion:
		return r.reduceSaving(s, e)
	case ExportFailed:
		return r.reduceExportFailed(s, e)
	}
	return s, nil
}

func (r *Reducer) reduceNoCamera(s NoCamera, e Event) (State, []Command) {
	switch e := e.(type) {
	case CamerasAvailable:
		if !e.Cameras.Any() {
			return s, nil
		}
		st := s.Settings
		st.Cameras = e.Cameras
		st.FrontFacing = e.Cameras.Front
		return r.steady(st), nil

	// Settings restored at start-up may arrive before the cameras.
	case DirectoryChosen:
		s.Directory = e.Directory
		return s, nil
	case GestureNameChanged:
		s.GestureName = normalizeName(e.Gesture)
		return s, nil
	}
	return s, nil
}

func (r *Reducer) reduceWaiting(s WaitingForConfig, e Event) (State, []Command) {
	switch e := e.(type) {
	case DirectoryChosen, GestureNameChanged, CamerasAvailable, ToggleCamera:
		next, cmds := r.reconfigure(s.Settings, e)
		_, toggled := e.(ToggleCamera)
		if w, ok := next.(WaitingForConfig); ok && !(toggled && s.Cameras.Both()) {
			// Same camera, so the buffered frames are still valid.
			w.Buffer, w.Rates = s.Buffer, s.Rates
			return w, cmds
		}
		return next, cmds

	case HandResult:
		s.Buffer = s.Buffer.PushHands(e.Result.Landmarks)
		return s, r.classify(s.Buffer)

	case FacePoseResult:
		s.Buffer = s.Buffer.PushFacePose(e.Result.Landmarks)
		return s, r.classify(s.Buffer)

	case RatesUpdated:
		s.Rates = e.Rates
		return s, nil
	}
	return s, nil
}

func (r *Reducer) reduceReady(s ReadyToRecord, e Event) (State, []Command) {
	switch e := e.(type) {
	case DirectoryChosen, GestureNameChanged, CamerasAvailable, ToggleCamera:
		return r.reconfigure(s.Settings, e)

	case StartPressed:
		s.Status = ""
		return r.prepare(s.Settings, 1)
	}
	return s, nil
}

func (r *Reducer) reducePreparing(s PreparingForGesture, e Event) (State, []Command) {
	switch e := e.(type) {
	case PrepareTick:
		// Ticks only count down; a late tick from an abandoned loop is ignored.
		if e.DelayTicks >= s.DelayTicks {
			return s, nil
		}
		if e.DelayTicks > 0 {
			s.DelayTicks = e.DelayTicks
			return s, nil
		}
		next := RecordingMotion{
			Settings:     s.Settings,
			GestureIndex: s.GestureIndex,
			TimeLeft:     r.config.RecordingTicks,
			Paused:       s.Paused,
			Hands:        recording.New(),
			FacePose:     recording.New(),
		}
		return next, []Command{StartRecording{GestureIndex: s.GestureIndex, Ticks: r.config.RecordingTicks}}

	case PausePressed:
		if s.Paused {
			return s, nil
		}
		s.Paused = true
		return s, []Command{Pause{}}

	case ResumePressed:
		if !s.Paused {
			return s, nil
		}
		s.Paused = false
		return s, []Command{Resume{}}

	case StopPressed:
		return r.waiting(s.Settings), []Command{Stop{}}
	}
	return s, nil
}

func (r *Reducer) reduceRecording(s RecordingMotion, e Event) (State, []Command) {
	switch e := e.(type) {
	case HandResult:
		if s.Paused {
			return s, nil
		}
		s.Hands = s.Hands.Ingest(e.Result.Filter(recording.HandsStream.Types()...))
		return s, nil

	case FacePoseResult:
		if s.Paused {
			return s, nil
		}
		s.FacePose = s.FacePose.Ingest(e.Result.Filter(recording.FacePoseStream.Types()...))
		return s, nil

	case RecordingTick:
		if e.TimeLeft >= s.TimeLeft {
			return s, nil
		}
		if e.TimeLeft > 0 {
			s.TimeLeft = e.TimeLeft
			return s, nil
		}
		var cmds []Command
		if s.Paused {
			cmds = append(cmds, Resume{})
		}
		cmds = append(cmds, Save{
			Directory:    s.Directory,
			GestureName:  s.GestureName,
			GestureIndex: s.GestureIndex,
			Hands:        s.Hands,
			FacePose:     s.FacePose,
		})
		return SavingMotion{Settings: s.Settings, GestureIndex: s.GestureIndex}, cmds

	case PausePressed:
		if s.Paused {
			return s, nil
		}
		s.Paused = true
		return s, []Command{Pause{}}

	case ResumePressed:
		if !s.Paused {
			return s, nil
		}
		s.Paused = false
		return s, []Command{Resume{}}

	case StopPressed:
		return r.waiting(s.Settings), []Command{Stop{}}
	}
	return s, nil
}

func (r *Reducer) reduceSaving(s SavingMotion, e Event) (State, []Command) {
	switch e := e.(type) {
	case SaveProgress:
		if e.Percent < 0 || e.Percent > 100 || e.Percent < s.Progress {
			return s, nil
		}
		s.Progress = e.Percent
		return s, nil

	case Saved:
		st := s.Settings
		st.Status = fmt.Sprintf("saved %s", e.Handle.Name)
		if s.GestureIndex < r.config.TotalGestures {
			return r.prepare(st, s.GestureIndex+1)
		}
		return WaitingForConfig{Settings: st, Buffer: gesture.NewBuffer(r.config.BufferSize), Completed: true}, nil

	case SaveFailed:
		st := s.Settings
		st.Status = fmt.Sprintf("export failed: %s", e.Message)
		return ExportFailed{
			Settings:     st,
			GestureIndex: s.GestureIndex,
			Message:      e.Message,
			Hands:        e.Hands,
			FacePose:     e.FacePose,
		}, nil
	}
	return s, nil
}

func (r *Reducer) reduceExportFailed(s ExportFailed, e Event) (State, []Command) {
	switch e.(type) {
	case RetryPressed:
		st := s.Settings
		st.Status = ""
		return SavingMotion{Settings: st, GestureIndex: s.GestureIndex}, []Command{Save{
			Directory:    s.Directory,
			GestureName:  s.GestureName,
			GestureIndex: s.GestureIndex,
			Hands:        s.Hands,
			FacePose:     s.FacePose,
		}}

	case StopPressed:
		return r.waiting(s.Settings), nil
	}
	return s, nil
}

// reconfigure applies a settings event in one of the steady phases.
func (r *Reducer) reconfigure(st Settings, e Event) (State, []Command) {
	switch e := e.(type) {
	case DirectoryChosen:
		st.Directory = e.Directory
	case GestureNameChanged:
		st.GestureName = normalizeName(e.Gesture)
	case CamerasAvailable:
		if !e.Cameras.Any() {
			return NoCamera{Settings: st}, nil
		}
		st.Cameras = e.Cameras
		if !e.Cameras.Back {
			st.FrontFacing = true
		} else if !e.Cameras.Front {
			st.FrontFacing = false
		}
		return r.steady(st), nil
	case ToggleCamera:
		if !st.Cameras.Both() {
			return r.steady(st), nil
		}
		st.FrontFacing = !st.FrontFacing
		return r.steady(st), []Command{SwitchCamera{FrontFacing: st.FrontFacing}, PersistSettings{Settings: st}}
	}
	return r.steady(st), []Command{PersistSettings{Settings: st}}
}

// steady returns ReadyToRecord when both settings are present, else WaitingForConfig.
func (r *Reducer) steady(st Settings) State {
	if st.Configured() {
		return ReadyToRecord{Settings: st}
	}
	return r.waiting(st)
}

// waiting returns WaitingForConfig with an empty classifier buffer. Directory and
// gesture name are kept; the next settings event promotes to ReadyToRecord.
func (r *Reducer) waiting(st Settings) State {
	return WaitingForConfig{Settings: st, Buffer: gesture.NewBuffer(r.config.BufferSize)}
}

func (r *Reducer) prepare(st Settings, index int) (State, []Command) {
	next := PreparingForGesture{
		Settings:     st,
		GestureIndex: index,
		DelayTicks:   r.config.DelayTicks,
	}
	return next, []Command{PrepareForGesture{GestureIndex: index, Ticks: r.config.DelayTicks}}
}

func (r *Reducer) classify(b gesture.Buffer) []Command {
	if !b.Ready() {
		return nil
	}
	return []Command{Classify{Hands: b.Hands(), FacePose: b.FacePose()}}
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

func withStatus(s State, status string) State {
	switch s := s.(type) {
	case NoCamera:
		s.Status = status
		return s
	case WaitingForConfig:
		s.Status = status
		return s
	case ReadyToRecord:
		s.Status = status
		return s
	case PreparingForGesture:
		s.Status = status
		return s
	case RecordingMotion:
		s.Status = status
		return s
	case SavingMotion:
		s.Status = status
		return s
	case ExportFailed:
		s.Status = status
		return s
	}
	return s
}
