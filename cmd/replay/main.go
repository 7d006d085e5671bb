// Command replay runs exported captures back through the gesture classifier buffer
// and prints the rates of every full window.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cheggaaa/pb/v3"

	"github.com/ayusman/landmarkscollector/internal/export"
	"github.com/ayusman/landmarkscollector/internal/gesture"
	"github.com/ayusman/landmarkscollector/internal/landmark"
	"github.com/ayusman/landmarkscollector/internal/platform/config"
	"github.com/ayusman/landmarkscollector/internal/platform/logger"
)

const barTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.01f%%" "?"}} {{etime . "%s elapsed"}}`

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	templates := flag.String("templates", "", "directory of captures to train templates from (overrides config)")
	bufferSize := flag.Int("buffer", 0, "classifier window length in frames (overrides config)")
	quiet := flag.Bool("quiet", false, "print only the summary")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: replay [flags] capture.csv...")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
	if *templates != "" {
		cfg.Classifier.Kind = "templates"
		cfg.Classifier.TemplatesDir = *templates
	}
	if *bufferSize > 0 {
		cfg.Session.BufferSize = *bufferSize
	}

	log := logger.New(cfg.Log.Level, "text")
	classifier, err := newClassifier(cfg.Classifier)
	if err != nil {
		log.Error("failed to load classifier", "error", err)
		os.Exit(1)
	}
	defer classifier.Close()

	ctx := context.Background()
	for _, path := range flag.Args() {
		windows, err := replayFile(ctx, path, classifier, cfg.Session.BufferSize)
		if err != nil {
			log.Error("replay failed", "file", path, "error", err)
			os.Exit(1)
		}
		report(os.Stdout, path, windows, *quiet)
	}
}

func newClassifier(cfg config.ClassifierConfig) (gesture.Classifier, error) {
	switch cfg.Kind {
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
		}, nil)
	}
	return nil, fmt.Errorf("no classifier configured; pass -templates or set classifier.kind")
}

func replayFile(ctx context.Context, path string, c gesture.Classifier, bufferSize int) ([]Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames, err := export.ReadFrames(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	bar := pb.ProgressBarTemplate(barTemplate).Start(len(frames))
	bar.Set("prefix", filepath.Base(path))
	defer bar.Finish()

	return Replay(ctx, frames, c, bufferSize, bar.Increment)
}

// Window is the classifier output once the buffer is full at Frame.
type Window struct {
	Frame uint
	Rates gesture.Rates
}

// Replay feeds frames through a classifier buffer the way the live session does:
// hand landmarks into one window, face and pose landmarks into the other. Every
// frame after both windows fill up is classified. step is called once per frame.
func Replay(ctx context.Context, frames []export.Frame, c gesture.Classifier, bufferSize int, step func() *pb.ProgressBar) ([]Window, error) {
	buf := gesture.NewBuffer(bufferSize)
	var windows []Window

	for _, f := range frames {
		hands, facePose := split(f.Landmarks)
		buf = buf.PushHands(hands).PushFacePose(facePose)

		if buf.Ready() {
			rates, err := gesture.Classify(ctx, c, buf.Hands(), buf.FacePose())
			if err != nil {
				return windows, fmt.Errorf("frame %d: %w", f.Number, err)
			}
			windows = append(windows, Window{Frame: f.Number, Rates: rates})
		}
		if step != nil {
			step()
		}
	}
	return windows, nil
}

func split(lms []landmark.Landmark) (hands, facePose []landmark.Landmark) {
	r := landmark.Result{Landmarks: lms}
	return r.Filter(landmark.RightHand, landmark.LeftHand), r.Filter(landmark.Face, landmark.Pose)
}

// Summary counts how often each label was the top rate.
func Summary(windows []Window) gesture.Rates {
	counts := make(map[string]int)
	for _, w := range windows {
		if top, ok := w.Rates.Top(); ok {
			counts[top.Label]++
		}
	}

	out := make(gesture.Rates, 0, len(counts))
	for label, n := range counts {
		out = append(out, gesture.Rate{Label: label, Probability: float32(n) / float32(len(windows))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func report(w io.Writer, path string, windows []Window, quiet bool) {
	if !quiet {
		for _, win := range windows {
			top, _ := win.Rates.Top()
			fmt.Fprintf(w, "%s frame %d: %s %.3f\n", filepath.Base(path), win.Frame, top.Label, top.Probability)
		}
	}
	if len(windows) == 0 {
		fmt.Fprintf(w, "%s: fewer frames than the classifier window\n", filepath.Base(path))
		return
	}
	for _, r := range Summary(windows) {
		fmt.Fprintf(w, "%s: %s %.0f%% of windows\n", filepath.Base(path), r.Label, r.Probability*100)
	}
}
