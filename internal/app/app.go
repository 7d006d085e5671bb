// Package app wires the camera, the landmark sources and the recording session together.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ayusman/landmarkscollector/internal/capture"
	"github.com/ayusman/landmarkscollector/internal/detector"
	"github.com/ayusman/landmarkscollector/internal/platform/metrics"
	"github.com/ayusman/landmarkscollector/internal/session"
)

// ErrNoCamera is returned by Start when neither camera can be opened.
var ErrNoCamera = errors.New("no camera available")

// Dispatcher delivers events to the session inbox.
type Dispatcher interface {
	Dispatch(e session.Event) bool
}

// Config holds the application's collaborators. Journal and Metrics are optional.
type Config struct {
	Camera   capture.Camera
	Hands    detector.Source
	FacePose detector.Source
	Session  Dispatcher
	Journal  *Journal
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// App runs the camera loop and fans frames out to the landmark sources.
type App struct {
	config  Config
	log     *slog.Logger
	preview *Preview

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &App{
		config:  config,
		log:     config.Logger,
		preview: NewPreview(),
	}
}

// Preview returns the latest encoded camera frame holder.
func (a *App) Preview() *Preview {
	return a.preview
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.config.Camera
}

// Start restores persisted settings, reports the available cameras to the session
// and starts the capture loop. It returns ErrNoCamera when no camera is present;
// the session stays in its no-camera phase in that case.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	restored := a.restore()

	front, back := a.config.Camera.Available()
	cams := session.Cameras{Front: front, Back: back}
	a.config.Session.Dispatch(session.CamerasAvailable{Cameras: cams})
	if !cams.Any() {
		return ErrNoCamera
	}

	if !front {
		if err := a.config.Camera.SwitchCamera(false); err != nil {
			return err
		}
	} else if restored.Found && !restored.FrontFacing && back {
		a.config.Session.Dispatch(session.ToggleCamera{})
	}

	if err := a.config.Camera.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	hands := newWorker(a.config.Hands, a.config.Session, a.config.Metrics, a.log)
	facePose := newWorker(a.config.FacePose, a.config.Session, a.config.Metrics, a.log)
	for _, w := range []*worker{hands, facePose} {
		w := w
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			w.run(ctx)
		}()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runCapture(ctx, hands, facePose)
	}()

	a.log.Info("capture started", "fps", a.config.Camera.FPS(), "front", front, "back", back)
	return nil
}

// Stop halts the capture loop, waits for the workers and releases the camera and
// the landmark sources.
func (a *App) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.wg.Wait()

	if err := a.config.Camera.Close(); err != nil {
		a.log.Error("failed to close camera", "error", err)
	}
	for _, src := range []detector.Source{a.config.Hands, a.config.FacePose} {
		if err := src.Close(); err != nil {
			a.log.Error("failed to close landmark source", "source", src.Name(), "error", err)
		}
	}

	a.log.Info("capture stopped")
}

// restore replays the persisted directory and gesture name into the session.
func (a *App) restore() Restored {
	if a.config.Journal == nil {
		return Restored{}
	}
	r, err := a.config.Journal.Restore()
	if err != nil {
		a.log.Warn("failed to restore settings", "error", err)
		return Restored{}
	}
	if r.Directory != "" {
		a.config.Session.Dispatch(session.DirectoryChosen{Directory: r.Directory})
	}
	if r.GestureName != "" {
		a.config.Session.Dispatch(session.GestureNameChanged{Gesture: r.GestureName})
	}
	if r.Found {
		a.log.Info("settings restored", "directory", r.Directory, "gesture", r.GestureName, "front_facing", r.FrontFacing)
	}
	return r
}
