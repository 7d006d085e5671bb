// Command collector records gesture landmark datasets from the camera.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ayusman/landmarkscollector/internal/app"
	"github.com/ayusman/landmarkscollector/internal/capture"
	"github.com/ayusman/landmarkscollector/internal/detector"
	"github.com/ayusman/landmarkscollector/internal/emitter"
	"github.com/ayusman/landmarkscollector/internal/export"
	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/platform/config"
	"github.com/ayusman/landmarkscollector/internal/platform/logger"
	"github.com/ayusman/landmarkscollector/internal/platform/metrics"
	"github.com/ayusman/landmarkscollector/internal/server"
	"github.com/ayusman/landmarkscollector/internal/session"
	"github.com/ayusman/landmarkscollector/internal/store"
	"github.com/ayusman/landmarkscollector/internal/tray"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	noTray := flag.Bool("no-tray", false, "run without the system tray")
	flag.Parse()

	cfg, err := config.Load(*configPath, ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "collector: %v\n", err)
		os.Exit(1)
	}
	if *noTray {
		cfg.Tray = false
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, log); err != nil {
		log.Error("collector failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(cfg.DataDir, "collector.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	met := metrics.New()
	journal := app.NewJournal(st)

	camera := capture.NewCamera(capture.Config{
		FrontID: cfg.Camera.FrontID,
		BackID:  cfg.Camera.BackID,
		FPS:     cfg.Camera.FPS,
	})
	hands, facePose := newSources(cfg.Detector, log)

	classifier, err := newClassifier(cfg.Classifier, log)
	if err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if classifier != nil {
		defer classifier.Close()
		log.Info("classifier loaded", "kind", cfg.Classifier.Kind, "labels", len(classifier.Labels()))
	}

	actor := session.NewActor(session.ActorConfig{
		TickInterval: cfg.Session.TickInterval,
		Creator:      export.DirCreator{},
		Pipeline:     export.NewPipeline(export.FSWriter{}, log),
		Classifier:   classifier,
		Journal:      journal,
		Camera:       camera,
		Metrics:      met,
		Logger:       log,
	})
	reducer := session.NewReducer(session.Config{
		DelayTicks:     cfg.Session.DelayTicks,
		RecordingTicks: cfg.Session.RecordingTicks,
		TotalGestures:  cfg.Session.TotalGestures,
		BufferSize:     cfg.Session.BufferSize,
		TickInterval:   cfg.Session.TickInterval,
	})
	sess := session.NewStore(reducer, actor, log, met)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sess.Run(ctx)
	}()

	application := app.New(app.Config{
		Camera:   camera,
		Hands:    hands,
		FacePose: facePose,
		Session:  sess,
		Journal:  journal,
		Metrics:  met,
		Logger:   log,
	})
	if err := application.Start(ctx); err != nil {
		if errors.Is(err, app.ErrNoCamera) {
			log.Warn("no camera found, recording unavailable")
		} else {
			log.Error("failed to start capture", "error", err)
		}
	}
	if cfg.OutputDir != "" {
		sess.Dispatch(session.DirectoryChosen{Directory: cfg.OutputDir})
	}

	if cfg.MQTT.Broker != "" {
		em := emitter.New(emitter.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		}, log)
		if err := em.Connect(ctx); err != nil {
			log.Error("mqtt emitter disabled", "error", err)
		} else {
			states, unsubscribe := sess.Subscribe()
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer em.Disconnect()
				defer unsubscribe()
				em.Run(ctx, states)
			}()
		}
	}

	srv := server.New(server.Config{
		StaticDir:     findWebDir(cfg.DataDir),
		Session:       sess,
		TotalGestures: reducer.Config().TotalGestures,
		Frames:        application.Preview(),
		Captures:      journal,
		Metrics:       met,
		Logger:        log,
	})
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: srv}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()
	log.Info("server starting", "addr", cfg.ListenAddr, "data_dir", cfg.DataDir, "tray", cfg.Tray)

	if cfg.Tray {
		t := tray.New(sess, reducer.Config().TotalGestures)
		t.OnOpen(func() { openBrowser(log, "http://"+cfg.ListenAddr) })
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	} else {
		<-ctx.Done()
	}
	stop()

	log.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	application.Stop()
	wg.Wait()

	log.Info("collector stopped")
	return nil
}

// newSources builds the hands and face+pose sources. A source whose service cannot
// be set up is replaced by one that reports the setup error on every frame.
func newSources(cfg config.DetectorConfig, log *slog.Logger) (detector.Source, detector.Source) {
	if cfg.Mock {
		hands := detector.NewMockSource(detector.SourceHands)
		hands.SetResult(detector.MockResult(capture.DefaultWidth, capture.DefaultHeight))
		facePose := detector.NewMockSource(detector.SourceFacePose)
		facePose.SetResult(detector.MockResult(capture.DefaultWidth, capture.DefaultHeight))
		log.Info("using mock landmark sources")
		return hands, facePose
	}

	base := detector.DefaultConfig()
	base.Python = cfg.Python
	if cfg.MinConfidence > 0 {
		base.MinConfidence = cfg.MinConfidence
	}

	handsCfg := base
	handsCfg.Script = cfg.HandsScript
	var hands detector.Source
	if src, err := detector.NewHandsSource(handsCfg, log); err != nil {
		log.Error("hands detector unavailable", "error", err)
		hands = detector.Unavailable(detector.SourceHands, err)
	} else {
		hands = src
	}

	faceCfg := base
	faceCfg.Script = cfg.FacePoseScript
	var facePose detector.Source
	if src, err := detector.NewFacePoseSource(faceCfg, log); err != nil {
		log.Error("face and pose detector unavailable", "error", err)
		facePose = detector.Unavailable(detector.SourceFacePose, err)
	} else {
		facePose = src
	}

	return hands, facePose
}

// newClassifier builds the live classifier, or nil when classification is off.
func newClassifier(cfg config.ClassifierConfig, log *slog.Logger) (gesture.Classifier, error) {
	switch cfg.Kind {
	case "", "none":
		return nil, nil
	case "templates":
		templates, err := gesture.NewTrainer().LoadTemplates(cfg.TemplatesDir)
		if err != nil {
			return nil, err
		}
		return gesture.NewTemplateClassifier(templates)
	case "process":
		return gesture.NewProcessClassifier(gesture.ProcessConfig{
			Command: cfg.Command,
			Args:    cfg.Args,
			Labels:  cfg.Labels,
		}, log)
	}
	return nil, fmt.Errorf("unknown classifier kind %q", cfg.Kind)
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and {dataDir}/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(log *slog.Logger, url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}
