package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/ayusman/landmarkscollector/internal/recording"
)

// Handle is an output file created for one gesture capture.
type Handle struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
}

// FileCreator creates the output file for a gesture capture.
type FileCreator interface {
	CreateFile(directory, gestureName string, gestureIndex int) (Handle, error)
}

// FileWriter writes the serialized payload to a created file.
type FileWriter interface {
	WriteFile(ctx context.Context, data []byte, h Handle) (Handle, error)
}

// Progress is one update of a running export. Exactly one update with Done set is sent,
// and it is the last one.
type Progress struct {
	Percent int
	Done    bool
	Handle  Handle
	Rows    int
	Frames  int
	Err     error
}

// Pipeline orders, serializes and writes recordings. It makes a single attempt per call.
type Pipeline struct {
	writer FileWriter
	log    *slog.Logger
}

// NewPipeline creates a Pipeline writing through w.
func NewPipeline(w FileWriter, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{writer: w, log: log}
}

// Export runs the export in a new goroutine and streams its progress. The returned
// channel is closed after the terminal update.
func (p *Pipeline) Export(ctx context.Context, hands, facePose recording.Recording, h Handle) <-chan Progress {
	out := make(chan Progress, 8)
	go func() {
		defer close(out)
		out <- p.run(ctx, hands, facePose, h, out)
	}()
	return out
}

func (p *Pipeline) run(ctx context.Context, hands, facePose recording.Recording, h Handle, out chan<- Progress) Progress {
	rows := Rows(hands, facePose)
	frames := int(min(hands.Frames(), facePose.Frames()))
	if frames == 0 {
		p.log.Warn("exporting capture without frames", "file", h.Name)
	}

	var buf bytes.Buffer
	last := -1
	err := WriteCSV(&buf, rows, func(percent int) {
		if percent <= last || percent > 100 {
			return
		}
		last = percent
		select {
		case out <- Progress{Percent: percent, Handle: h}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return Progress{Done: true, Handle: h, Err: fmt.Errorf("serialize %s: %w", h.Name, err)}
	}
	if err := ctx.Err(); err != nil {
		return Progress{Done: true, Handle: h, Err: err}
	}

	written, err := p.writer.WriteFile(ctx, buf.Bytes(), h)
	if err != nil {
		p.log.Error("export write failed", "file", h.Name, "error", err)
		return Progress{Done: true, Handle: h, Err: fmt.Errorf("write %s: %w", h.Name, err)}
	}

	p.log.Info("export written",
		"file", written.Path,
		"frames", frames,
		"rows", len(rows),
		"bytes", buf.Len(),
	)
	return Progress{Percent: 100, Done: true, Handle: written, Rows: len(rows), Frames: frames}
}
