package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/ayusman/landmarkscollector/internal/detector"
	"github.com/ayusman/landmarkscollector/internal/platform/metrics"
	"github.com/ayusman/landmarkscollector/internal/session"
	"gocv.io/x/gocv"
)

// frame is one camera frame handed to a worker. The worker owns mat.
type frame struct {
	mat         *gocv.Mat
	frontFacing bool
}

// worker runs one landmark source on its own goroutine. It holds at most one
// pending frame; a frame offered while the slot is taken is dropped.
type worker struct {
	source  detector.Source
	session Dispatcher
	metrics *metrics.Metrics
	log     *slog.Logger
	slot    chan frame
	failing bool
}

func newWorker(source detector.Source, session Dispatcher, m *metrics.Metrics, log *slog.Logger) *worker {
	return &worker{
		source:  source,
		session: session,
		metrics: m,
		log:     log.With("source", source.Name()),
		slot:    make(chan frame, 1),
	}
}

// offer hands a clone of mat to the worker. It never blocks.
func (w *worker) offer(mat *gocv.Mat, frontFacing bool) bool {
	clone := mat.Clone()
	select {
	case w.slot <- frame{mat: &clone, frontFacing: frontFacing}:
		return true
	default:
		clone.Close()
		w.metrics.IncFramesDropped(w.source.Name())
		return false
	}
}

func (w *worker) run(ctx context.Context) {
	defer w.drain()
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-w.slot:
			w.detect(f)
		}
	}
}

func (w *worker) detect(f frame) {
	defer f.mat.Close()

	result, err := w.source.Detect(f.mat, f.frontFacing)
	if err != nil {
		// Report once per failure streak.
		if !w.failing {
			w.failing = true
			w.log.Error("landmark detection failed", "error", err)
			w.session.Dispatch(session.DetectorFailed{Source: w.source.Name(), Message: err.Error()})
		}
		return
	}
	if w.failing {
		w.failing = false
		w.log.Info("landmark detection recovered")
	}

	w.metrics.IncFrames(w.source.Name())
	switch w.source.Name() {
	case detector.SourceHands:
		w.session.Dispatch(session.HandResult{Result: result})
	default:
		w.session.Dispatch(session.FacePoseResult{Result: result})
	}
}

func (w *worker) drain() {
	for {
		select {
		case f := <-w.slot:
			f.mat.Close()
		default:
			return
		}
	}
}

// runCapture reads frames at the camera's rate, publishes the preview and offers
// every frame to both workers.
func (a *App) runCapture(ctx context.Context, workers ...*worker) {
	fps := a.config.Camera.FPS()
	if fps <= 0 {
		fps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var readErrors int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mat, err := a.config.Camera.ReadFrame()
		if err != nil {
			readErrors++
			if readErrors == 1 || readErrors%100 == 0 {
				a.log.Warn("failed to read frame", "error", err, "count", readErrors)
			}
			continue
		}
		readErrors = 0

		frontFacing := a.config.Camera.FrontFacing()
		if err := a.preview.Update(mat, frontFacing); err != nil {
			a.log.Debug("failed to encode preview", "error", err)
		}
		for _, w := range workers {
			w.offer(mat, frontFacing)
		}
		mat.Close()
	}
}
