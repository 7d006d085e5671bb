package session

import (
	"fmt"
	"testing"

	"github.com/ayusman/landmarkscollector/internal/export"
	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/landmark"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

func testConfig() Config {
	return Config{DelayTicks: 3, RecordingTicks: 5, TotalGestures: 10, BufferSize: 2}
}

func configured() Settings {
	return Settings{
		Directory:   "/captures",
		GestureName: "wave",
		Cameras:     Cameras{Front: true, Back: true},
		FrontFacing: true,
	}
}

func rightHand(n int) []landmark.Landmark {
	out := make([]landmark.Landmark, n)
	for i := range out {
		out[i] = landmark.Landmark{Type: landmark.RightHand, Index: uint(i), X: 0.5, Y: 0.5, Z: 0.1}
	}
	return out
}

func onlyCommand[T Command](t *testing.T, cmds []Command) T {
	t.Helper()
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d: %#v", len(cmds), cmds)
	}
	c, ok := cmds[0].(T)
	if !ok {
		t.Fatalf("command = %T, want %T", cmds[0], *new(T))
	}
	return c
}

func TestReducer_NoCamera(t *testing.T) {
	r := NewReducer(testConfig())

	t.Run("no cameras keeps waiting", func(t *testing.T) {
		s, cmds := r.Reduce(r.Initial(), CamerasAvailable{})
		if _, ok := s.(NoCamera); !ok || cmds != nil {
			t.Errorf("state = %T cmds = %v", s, cmds)
		}
	})

	t.Run("camera found", func(t *testing.T) {
		s, _ := r.Reduce(r.Initial(), CamerasAvailable{Cameras: Cameras{Back: true}})
		w, ok := s.(WaitingForConfig)
		if !ok {
			t.Fatalf("state = %T, want WaitingForConfig", s)
		}
		if w.FrontFacing {
			t.Error("only a back camera exists, FrontFacing should be false")
		}
	})

	t.Run("restored settings promote to ready", func(t *testing.T) {
		s, _ := r.Reduce(r.Initial(), DirectoryChosen{Directory: "/captures"})
		s, _ = r.Reduce(s, GestureNameChanged{Gesture: "wave"})
		if _, ok := s.(NoCamera); !ok {
			t.Fatalf("state = %T, want NoCamera until a camera is found", s)
		}
		s, _ = r.Reduce(s, CamerasAvailable{Cameras: Cameras{Front: true}})
		ready, ok := s.(ReadyToRecord)
		if !ok {
			t.Fatalf("state = %T, want ReadyToRecord", s)
		}
		if ready.Directory != "/captures" || ready.GestureName != "wave" || !ready.FrontFacing {
			t.Errorf("settings = %+v", ready.Settings)
		}
	})
}

func TestReducer_Configuration(t *testing.T) {
	r := NewReducer(testConfig())
	start := r.waiting(Settings{Cameras: Cameras{Front: true}, FrontFacing: true})

	s, cmds := r.Reduce(start, DirectoryChosen{Directory: "/captures"})
	if _, ok := s.(WaitingForConfig); !ok {
		t.Fatalf("state = %T, want WaitingForConfig while name is unset", s)
	}
	persist := onlyCommand[PersistSettings](t, cmds)
	if persist.Settings.Directory != "/captures" {
		t.Errorf("persisted = %+v", persist.Settings)
	}

	s, _ = r.Reduce(s, GestureNameChanged{Gesture: "  wave "})
	ready, ok := s.(ReadyToRecord)
	if !ok {
		t.Fatalf("state = %T, want ReadyToRecord", s)
	}
	if ready.GestureName != "wave" {
		t.Errorf("GestureName = %q, want trimmed", ready.GestureName)
	}

	s, _ = r.Reduce(s, GestureNameChanged{Gesture: ""})
	if _, ok := s.(WaitingForConfig); !ok {
		t.Errorf("state = %T, want WaitingForConfig after clearing the name", s)
	}

	// name first, then directory
	s, _ = r.Reduce(start, GestureNameChanged{Gesture: "wave"})
	if _, ok := s.(WaitingForConfig); !ok {
		t.Fatalf("state = %T, want WaitingForConfig", s)
	}
	s, _ = r.Reduce(s, DirectoryChosen{Directory: "/captures"})
	if _, ok := s.(ReadyToRecord); !ok {
		t.Errorf("state = %T, want ReadyToRecord", s)
	}
}

func TestReducer_PrepareAndRecord(t *testing.T) {
	r := NewReducer(testConfig())

	s, cmds := r.Reduce(ReadyToRecord{Settings: configured()}, StartPressed{})
	prep, ok := s.(PreparingForGesture)
	if !ok {
		t.Fatalf("state = %T, want PreparingForGesture", s)
	}
	if prep.GestureIndex != 1 || prep.DelayTicks != 3 || prep.Paused {
		t.Errorf("preparing = %+v", prep)
	}
	if c := onlyCommand[PrepareForGesture](t, cmds); c.GestureIndex != 1 || c.Ticks != 3 {
		t.Errorf("command = %+v", c)
	}

	for _, n := range []int{2, 1} {
		s, cmds = r.Reduce(s, PrepareTick{DelayTicks: n})
		if p := s.(PreparingForGesture); p.DelayTicks != n || cmds != nil {
			t.Errorf("after tick %d: delay = %d cmds = %v", n, p.DelayTicks, cmds)
		}
	}

	s, cmds = r.Reduce(s, PrepareTick{DelayTicks: 0})
	rec, ok := s.(RecordingMotion)
	if !ok {
		t.Fatalf("state = %T, want RecordingMotion", s)
	}
	if rec.GestureIndex != 1 || rec.TimeLeft != 5 || rec.Paused {
		t.Errorf("recording = %+v", rec)
	}
	if rec.Hands.Frames() != 0 || rec.FacePose.Frames() != 0 {
		t.Error("recordings should start empty")
	}
	if c := onlyCommand[StartRecording](t, cmds); c.GestureIndex != 1 || c.Ticks != 5 {
		t.Errorf("command = %+v", c)
	}
}

func TestReducer_StaleTicksIgnored(t *testing.T) {
	r := NewReducer(testConfig())
	prep := PreparingForGesture{Settings: configured(), GestureIndex: 1, DelayTicks: 1}

	s, cmds := r.Reduce(prep, PrepareTick{DelayTicks: 2})
	if s.(PreparingForGesture).DelayTicks != 1 || cmds != nil {
		t.Errorf("tick counting up should be ignored, got %+v", s)
	}

	rec := RecordingMotion{Settings: configured(), GestureIndex: 1, TimeLeft: 3}
	s, _ = r.Reduce(rec, RecordingTick{TimeLeft: 3})
	if s.(RecordingMotion).TimeLeft != 3 {
		t.Errorf("repeated tick should be ignored, got %+v", s)
	}
	s, _ = r.Reduce(rec, PrepareTick{DelayTicks: 0})
	if _, ok := s.(RecordingMotion); !ok {
		t.Errorf("prepare tick in recording phase should be ignored, got %T", s)
	}
}

func TestReducer_RecordingIngest(t *testing.T) {
	r := NewReducer(testConfig())
	rec := RecordingMotion{
		Settings:     configured(),
		GestureIndex: 1,
		TimeLeft:     5,
		Hands:        recording.New(),
		FacePose:     recording.New(),
	}

	s, cmds := r.Reduce(rec, HandResult{Result: landmark.Result{Landmarks: rightHand(21)}})
	if cmds != nil {
		t.Errorf("cmds = %v", cmds)
	}
	got := s.(RecordingMotion)
	if got.Hands.Frames() != 1 {
		t.Errorf("hands frames = %d, want 1", got.Hands.Frames())
	}
	if got.Hands.Len() != 21 {
		t.Errorf("hands rows = %d, want 21", got.Hands.Len())
	}
	for i := 0; i < 21; i++ {
		id := recording.RowID(fmt.Sprintf("0-right_hand-%d", i))
		if row, ok := got.Hands.Lookup(0, landmark.RightHand, uint(i)); !ok || row.ID != id {
			t.Errorf("missing row %s", id)
		}
	}
	if got.FacePose.Frames() != 0 {
		t.Errorf("face/pose frames = %d, want 0", got.FacePose.Frames())
	}

	// the input state is untouched
	if rec.Hands.Frames() != 0 {
		t.Error("Reduce modified its input recording")
	}

	s, _ = r.Reduce(got, FacePoseResult{Result: landmark.Result{}})
	if s.(RecordingMotion).FacePose.Frames() != 1 {
		t.Error("an empty face/pose result should still consume a frame")
	}

	paused := got
	paused.Paused = true
	s, _ = r.Reduce(paused, HandResult{Result: landmark.Result{Landmarks: rightHand(21)}})
	if s.(RecordingMotion).Hands.Frames() != 1 {
		t.Error("paused recording should not ingest landmarks")
	}
}

func TestReducer_RecordingKeepsStreamTypes(t *testing.T) {
	r := NewReducer(testConfig())
	rec := RecordingMotion{
		Settings:     configured(),
		GestureIndex: 1,
		TimeLeft:     5,
		Hands:        recording.New(),
		FacePose:     recording.New(),
	}

	mixed := append(rightHand(2), landmark.Landmark{Type: landmark.Face, Index: 0})
	s, _ := r.Reduce(rec, HandResult{Result: landmark.Result{Landmarks: mixed}})
	got := s.(RecordingMotion)
	if got.Hands.Len() != 2 {
		t.Errorf("hands rows = %d, want 2", got.Hands.Len())
	}
	if _, ok := got.Hands.Lookup(0, landmark.Face, 0); ok {
		t.Error("face row recorded on the hands stream")
	}
}

func TestReducer_RecordingToSaving(t *testing.T) {
	r := NewReducer(testConfig())
	hands := recording.New().Ingest(rightHand(21))
	rec := RecordingMotion{Settings: configured(), GestureIndex: 4, TimeLeft: 1, Hands: hands, FacePose: recording.New()}

	s, cmds := r.Reduce(rec, RecordingTick{TimeLeft: 0})
	saving, ok := s.(SavingMotion)
	if !ok {
		t.Fatalf("state = %T, want SavingMotion", s)
	}
	if saving.GestureIndex != 4 || saving.Progress != 0 {
		t.Errorf("saving = %+v", saving)
	}
	save := onlyCommand[Save](t, cmds)
	if save.Directory != "/captures" || save.GestureName != "wave" || save.GestureIndex != 4 {
		t.Errorf("save = %+v", save)
	}
	if save.Hands.Len() != 21 {
		t.Errorf("save carries %d hand rows, want 21", save.Hands.Len())
	}

	t.Run("paused at zero releases the gate", func(t *testing.T) {
		rec.Paused = true
		_, cmds := r.Reduce(rec, RecordingTick{TimeLeft: 0})
		if len(cmds) != 2 {
			t.Fatalf("cmds = %#v", cmds)
		}
		if _, ok := cmds[0].(Resume); !ok {
			t.Errorf("first command = %T, want Resume", cmds[0])
		}
	})
}

func TestReducer_SaveProgress(t *testing.T) {
	r := NewReducer(testConfig())
	s := State(SavingMotion{Settings: configured(), GestureIndex: 1, Progress: 40})

	tests := []struct {
		percent int
		want    int
	}{
		{150, 40},
		{-1, 40},
		{30, 40},
		{60, 60},
		{100, 100},
	}
	for _, tt := range tests {
		s, _ = r.Reduce(s, SaveProgress{Percent: tt.percent})
		if got := s.(SavingMotion).Progress; got != tt.want {
			t.Errorf("after %d: progress = %d, want %d", tt.percent, got, tt.want)
		}
	}
}

func TestReducer_SavedAdvances(t *testing.T) {
	r := NewReducer(Config{DelayTicks: 3, RecordingTicks: 5, TotalGestures: 2, BufferSize: 2})
	saved := Saved{Handle: export.Handle{Name: "wave_1.csv"}}

	s, cmds := r.Reduce(SavingMotion{Settings: configured(), GestureIndex: 1}, saved)
	prep, ok := s.(PreparingForGesture)
	if !ok {
		t.Fatalf("state = %T, want PreparingForGesture", s)
	}
	if prep.GestureIndex != 2 || prep.DelayTicks != 3 {
		t.Errorf("preparing = %+v", prep)
	}
	if c := onlyCommand[PrepareForGesture](t, cmds); c.GestureIndex != 2 {
		t.Errorf("command = %+v", c)
	}
	if prep.Status != "saved wave_1.csv" {
		t.Errorf("status = %q", prep.Status)
	}

	s, cmds = r.Reduce(SavingMotion{Settings: configured(), GestureIndex: 2}, saved)
	w, ok := s.(WaitingForConfig)
	if !ok {
		t.Fatalf("state = %T, want WaitingForConfig after the last gesture", s)
	}
	if cmds != nil {
		t.Errorf("cmds = %v", cmds)
	}
	if w.Directory != "/captures" || w.GestureName != "wave" {
		t.Errorf("settings should be retained, got %+v", w.Settings)
	}
	if !w.Completed {
		t.Error("waiting state after the last gesture should be marked completed")
	}

	s, cmds = r.Reduce(w, StartPressed{})
	if _, ok := s.(WaitingForConfig); !ok || cmds != nil {
		t.Errorf("StartPressed on a completed session = %T %v, want ignored", s, cmds)
	}

	s, _ = r.Reduce(w, GestureNameChanged{Gesture: "wave"})
	if _, ok := s.(ReadyToRecord); !ok {
		t.Errorf("state = %T, want ReadyToRecord once the name is confirmed", s)
	}
}

func TestReducer_GestureBound(t *testing.T) {
	cfg := Config{DelayTicks: 1, RecordingTicks: 1, TotalGestures: 3, BufferSize: 2}
	r := NewReducer(cfg)

	s, _ := r.Reduce(ReadyToRecord{Settings: configured()}, StartPressed{})
	saves := 0
	for i := 0; i < 20; i++ {
		switch st := s.(type) {
		case PreparingForGesture:
			s, _ = r.Reduce(st, PrepareTick{DelayTicks: 0})
		case RecordingMotion:
			s, _ = r.Reduce(st, RecordingTick{TimeLeft: 0})
		case SavingMotion:
			saves++
			s, _ = r.Reduce(st, Saved{})
		}
		if idx := GestureIndexOf(s); idx > cfg.TotalGestures {
			t.Fatalf("gesture index %d exceeds %d", idx, cfg.TotalGestures)
		}
		if _, ok := s.(WaitingForConfig); ok {
			break
		}
	}
	if _, ok := s.(WaitingForConfig); !ok {
		t.Fatalf("state = %T, want WaitingForConfig", s)
	}
	if saves != 3 {
		t.Errorf("saves = %d, want 3", saves)
	}
}

func TestReducer_PauseResumeStop(t *testing.T) {
	r := NewReducer(testConfig())
	pausables := []State{
		PreparingForGesture{Settings: configured(), GestureIndex: 2, DelayTicks: 2},
		RecordingMotion{Settings: configured(), GestureIndex: 2, TimeLeft: 4, Hands: recording.New().Ingest(nil)},
	}

	for _, start := range pausables {
		t.Run(start.Phase(), func(t *testing.T) {
			s, cmds := r.Reduce(start, PausePressed{})
			if !s.(Pausable).IsPaused() {
				t.Fatal("expected paused")
			}
			onlyCommand[Pause](t, cmds)

			if _, cmds := r.Reduce(s, PausePressed{}); cmds != nil {
				t.Errorf("second pause should be a no-op, got %v", cmds)
			}

			s, cmds = r.Reduce(s, ResumePressed{})
			if s.(Pausable).IsPaused() {
				t.Fatal("expected resumed")
			}
			onlyCommand[Resume](t, cmds)

			if _, cmds := r.Reduce(s, ResumePressed{}); cmds != nil {
				t.Errorf("resume while running should be a no-op, got %v", cmds)
			}

			s, cmds = r.Reduce(s, StopPressed{})
			w, ok := s.(WaitingForConfig)
			if !ok {
				t.Fatalf("state = %T, want WaitingForConfig", s)
			}
			onlyCommand[Stop](t, cmds)
			if w.Directory != "/captures" || w.GestureName != "wave" {
				t.Errorf("settings = %+v", w.Settings)
			}
		})
	}
}

func TestReducer_NonPausableIgnoresControls(t *testing.T) {
	r := NewReducer(testConfig())
	states := []State{
		NoCamera{},
		r.waiting(configured()),
		ReadyToRecord{Settings: configured()},
		SavingMotion{Settings: configured(), GestureIndex: 1, Progress: 10},
	}

	for _, start := range states {
		for _, e := range []Event{PausePressed{}, ResumePressed{}, StopPressed{}, RetryPressed{}} {
			s, cmds := r.Reduce(start, e)
			if s.Phase() != start.Phase() || cmds != nil {
				t.Errorf("%s + %s: state = %s cmds = %v", start.Phase(), e.Name(), s.Phase(), cmds)
			}
		}
	}
}

func TestReducer_ExportFailure(t *testing.T) {
	r := NewReducer(testConfig())
	hands := recording.New().Ingest(rightHand(3))

	s, cmds := r.Reduce(SavingMotion{Settings: configured(), GestureIndex: 3, Progress: 50},
		SaveFailed{Message: "disk full", Hands: hands, FacePose: recording.New()})
	failed, ok := s.(ExportFailed)
	if !ok {
		t.Fatalf("state = %T, want ExportFailed", s)
	}
	if failed.Message != "disk full" || failed.GestureIndex != 3 || failed.Hands.Len() != 3 {
		t.Errorf("failed = %+v", failed)
	}
	if cmds != nil {
		t.Errorf("cmds = %v", cmds)
	}

	t.Run("retry", func(t *testing.T) {
		s, cmds := r.Reduce(failed, RetryPressed{})
		saving, ok := s.(SavingMotion)
		if !ok || saving.GestureIndex != 3 || saving.Progress != 0 {
			t.Fatalf("state = %#v", s)
		}
		save := onlyCommand[Save](t, cmds)
		if save.GestureIndex != 3 || save.Hands.Len() != 3 {
			t.Errorf("save = %+v", save)
		}
	})

	t.Run("stop", func(t *testing.T) {
		s, cmds := r.Reduce(failed, StopPressed{})
		if _, ok := s.(WaitingForConfig); !ok || cmds != nil {
			t.Errorf("state = %T cmds = %v", s, cmds)
		}
	})
}

func TestReducer_ClassifierBuffer(t *testing.T) {
	r := NewReducer(testConfig())
	s := r.waiting(Settings{Cameras: Cameras{Front: true}, FrontFacing: true})

	var cmds []Command
	s, cmds = r.Reduce(s, HandResult{Result: landmark.Result{Landmarks: rightHand(21)}})
	s, cmds = r.Reduce(s, HandResult{Result: landmark.Result{Landmarks: rightHand(21)}})
	if cmds != nil {
		t.Fatalf("classification before face/pose window is full: %v", cmds)
	}
	s, _ = r.Reduce(s, FacePoseResult{})
	s, cmds = r.Reduce(s, FacePoseResult{})

	c := onlyCommand[Classify](t, cmds)
	if c.Hands.Len() != 2 || c.FacePose.Len() != 2 {
		t.Errorf("windows = %d/%d, want 2/2", c.Hands.Len(), c.FacePose.Len())
	}

	rates := gesture.Rates{{Label: "hello", Probability: 0.9}}
	s, _ = r.Reduce(s, RatesUpdated{Rates: rates})
	if w := s.(WaitingForConfig); len(w.Rates) != 1 || w.Rates[0].Label != "hello" {
		t.Errorf("rates = %v", w.Rates)
	}

	// typing a directory keeps the warm buffer
	s, _ = r.Reduce(s, DirectoryChosen{Directory: "/captures"})
	if w := s.(WaitingForConfig); !w.Buffer.Ready() || len(w.Rates) != 1 {
		t.Error("settings change should keep the classifier buffer")
	}

	t.Run("ignored outside waiting", func(t *testing.T) {
		ready := ReadyToRecord{Settings: configured()}
		s, cmds := r.Reduce(ready, HandResult{Result: landmark.Result{Landmarks: rightHand(21)}})
		if s != State(ready) || cmds != nil {
			t.Errorf("state = %#v cmds = %v", s, cmds)
		}
	})
}

func TestReducer_ToggleCamera(t *testing.T) {
	r := NewReducer(testConfig())

	s, cmds := r.Reduce(ReadyToRecord{Settings: configured()}, ToggleCamera{})
	if s.(ReadyToRecord).FrontFacing {
		t.Error("expected back camera after toggle")
	}
	if len(cmds) != 2 {
		t.Fatalf("cmds = %#v", cmds)
	}
	if sw, ok := cmds[0].(SwitchCamera); !ok || sw.FrontFacing {
		t.Errorf("first command = %#v", cmds[0])
	}

	single := configured()
	single.Cameras = Cameras{Front: true}
	s, cmds = r.Reduce(ReadyToRecord{Settings: single}, ToggleCamera{})
	if !s.(ReadyToRecord).FrontFacing || cmds != nil {
		t.Errorf("toggle with one camera should be a no-op, got %+v %v", s, cmds)
	}

	prep := PreparingForGesture{Settings: configured(), GestureIndex: 1, DelayTicks: 3}
	if s, cmds := r.Reduce(prep, ToggleCamera{}); s != State(prep) || cmds != nil {
		t.Error("toggle during recording cycle should be ignored")
	}
}

func TestReducer_DetectorFailed(t *testing.T) {
	r := NewReducer(testConfig())
	rec := RecordingMotion{Settings: configured(), GestureIndex: 1, TimeLeft: 3}

	s, cmds := r.Reduce(rec, DetectorFailed{Source: "hands", Message: "model missing"})
	got, ok := s.(RecordingMotion)
	if !ok || cmds != nil {
		t.Fatalf("state = %T cmds = %v", s, cmds)
	}
	if got.Status != "hands detector failed: model missing" {
		t.Errorf("status = %q", got.Status)
	}
	if got.TimeLeft != 3 {
		t.Error("detector failure should not change the timeline")
	}
}
