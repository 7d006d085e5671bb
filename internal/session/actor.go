package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/landmarkscollector/internal/export"
	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/platform/metrics"
)

// Journal persists saved captures and settings.
type Journal interface {
	CaptureSaved(gestureName string, gestureIndex int, saved Saved) error
	SettingsChanged(s Settings) error
}

// CameraSwitcher changes the active camera.
type CameraSwitcher interface {
	SwitchCamera(frontFacing bool) error
}

// ActorConfig holds the Actor's collaborators. Classifier, Journal, Camera and
// Metrics are optional.
type ActorConfig struct {
	TickInterval time.Duration
	Creator      export.FileCreator
	Pipeline     *export.Pipeline
	Classifier   gesture.Classifier
	Journal      Journal
	Camera       CameraSwitcher
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Actor executes commands. Gate commands run synchronously in the caller's
// goroutine; everything else runs on its own goroutine and reports back through
// dispatch.
type Actor struct {
	config ActorConfig
	gate   *Gate
	log    *slog.Logger

	mu         sync.Mutex
	cancelTick context.CancelFunc

	classifying atomic.Bool
	wg          sync.WaitGroup

	persistSeq atomic.Uint64
	persistMu  sync.Mutex
	persisted  uint64
}

// NewActor creates an Actor.
func NewActor(config ActorConfig) *Actor {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Actor{
		config: config,
		gate:   NewGate(),
		log:    config.Logger,
	}
}

// Gate returns the gate shared by Pause, Resume, Stop and the tick loops.
func (a *Actor) Gate() *Gate {
	return a.gate
}

// Execute runs cmd. ctx bounds every goroutine the command starts.
func (a *Actor) Execute(ctx context.Context, cmd Command, dispatch func(Event)) {
	switch cmd := cmd.(type) {
	case PrepareForGesture:
		a.startTicks(ctx, cmd.Ticks, func(n int) Event { return PrepareTick{DelayTicks: n} }, dispatch)

	case StartRecording:
		a.startTicks(ctx, cmd.Ticks, func(n int) Event { return RecordingTick{TimeLeft: n} }, dispatch)

	case Pause:
		// A tick loop holds the gate only for the instant of Pass.
		if err := a.gate.Acquire(ctx); err != nil {
			a.log.Warn("pause: gate not acquired", "error", err)
		}

	case Resume:
		a.gate.Release()

	case Stop:
		a.stopTicks()
		a.gate.Release()

	case Save:
		a.goSave(ctx, cmd, dispatch)

	case Classify:
		a.goClassify(ctx, cmd, dispatch)

	case SwitchCamera:
		if a.config.Camera == nil {
			return
		}
		a.spawn(func() {
			if err := a.config.Camera.SwitchCamera(cmd.FrontFacing); err != nil {
				a.log.Error("failed to switch camera", "front_facing", cmd.FrontFacing, "error", err)
			}
		})

	case PersistSettings:
		if a.config.Journal == nil {
			return
		}
		seq := a.persistSeq.Add(1)
		a.spawn(func() { a.persist(seq, cmd.Settings) })

	default:
		a.log.Warn("unknown command", "command", cmd)
	}
}

// Wait blocks until every goroutine started by Execute has returned.
func (a *Actor) Wait() {
	a.stopTicks()
	a.wg.Wait()
}

func (a *Actor) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// startTicks replaces the running tick loop. The loop emits ticks-1 down to 0, one
// per interval, passing the gate before each emit.
func (a *Actor) startTicks(ctx context.Context, ticks int, tick func(int) Event, dispatch func(Event)) {
	ctx, cancel := context.WithCancel(ctx)

	a.mu.Lock()
	if a.cancelTick != nil {
		a.cancelTick()
	}
	a.cancelTick = cancel
	a.mu.Unlock()

	interval := a.config.TickInterval
	a.spawn(func() {
		defer cancel()
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for n := ticks - 1; n >= 0; n-- {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			if err := a.gate.Pass(ctx); err != nil {
				return
			}
			// Stop cancels and releases together; Pass may win the race.
			if ctx.Err() != nil {
				return
			}
			dispatch(tick(n))
			timer.Reset(interval)
		}
	})
}

// persist writes settings unless a later PersistSettings already landed.
func (a *Actor) persist(seq uint64, s Settings) {
	a.persistMu.Lock()
	defer a.persistMu.Unlock()

	if seq < a.persisted {
		return
	}
	if err := a.config.Journal.SettingsChanged(s); err != nil {
		a.log.Error("failed to persist settings", "error", err)
		return
	}
	a.persisted = seq
}

func (a *Actor) stopTicks() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelTick != nil {
		a.cancelTick()
		a.cancelTick = nil
	}
}

func (a *Actor) goSave(ctx context.Context, cmd Save, dispatch func(Event)) {
	a.spawn(func() {
		start := time.Now()
		fail := func(err error) {
			a.config.Metrics.ObserveExport(time.Since(start), err)
			dispatch(SaveFailed{Message: err.Error(), Hands: cmd.Hands, FacePose: cmd.FacePose})
		}

		h, err := a.config.Creator.CreateFile(cmd.Directory, cmd.GestureName, cmd.GestureIndex)
		if err != nil {
			a.log.Error("failed to create capture file", "gesture", cmd.GestureName, "index", cmd.GestureIndex, "error", err)
			fail(err)
			return
		}

		for p := range a.config.Pipeline.Export(ctx, cmd.Hands, cmd.FacePose, h) {
			if !p.Done {
				dispatch(SaveProgress{Percent: p.Percent})
				continue
			}
			if p.Err != nil {
				fail(p.Err)
				return
			}

			a.config.Metrics.ObserveExport(time.Since(start), nil)
			saved := Saved{Handle: p.Handle, Rows: p.Rows, Frames: p.Frames}
			if a.config.Journal != nil {
				if err := a.config.Journal.CaptureSaved(cmd.GestureName, cmd.GestureIndex, saved); err != nil {
					a.log.Error("failed to journal capture", "file", p.Handle.Path, "error", err)
				}
			}
			dispatch(SaveProgress{Percent: 100})
			dispatch(saved)
		}
	})
}

// goClassify runs at most one classification at a time; windows arriving while one
// is in flight are skipped.
func (a *Actor) goClassify(ctx context.Context, cmd Classify, dispatch func(Event)) {
	if a.config.Classifier == nil {
		return
	}
	if !a.classifying.CompareAndSwap(false, true) {
		a.config.Metrics.ObserveClassification(0, nil)
		return
	}

	a.spawn(func() {
		defer a.classifying.Store(false)

		start := time.Now()
		rates, err := gesture.Classify(ctx, a.config.Classifier, cmd.Hands, cmd.FacePose)
		a.config.Metrics.ObserveClassification(time.Since(start), err)
		if err != nil {
			a.log.Debug("classification failed", "error", err)
			return
		}
		dispatch(RatesUpdated{Rates: rates})
	})
}
