package gesture

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/ayusman/landmarkscollector/internal/export"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

// Trainer turns exported captures into classifier templates.
type Trainer struct{}

// NewTrainer creates a new Trainer instance.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// FramesToTensor flattens frames read back from a capture file.
func FramesToTensor(frames []export.Frame) [][]float32 {
	w := NewWindow(max(len(frames), 1))
	for _, f := range frames {
		w = w.Push(recording.NewSnapshot(f.Number, f.Landmarks))
	}
	return Tensor(w, w)
}

// Train averages several captures of the same gesture into one template.
// Captures are resampled to the length of the first one before averaging.
func (t *Trainer) Train(label string, samples [][][]float32) (Template, error) {
	if len(samples) == 0 {
		return Template{}, fmt.Errorf("no samples provided")
	}
	for i, s := range samples {
		if len(s) < 2 {
			return Template{}, fmt.Errorf("sample %d has insufficient frames", i)
		}
	}

	targetLength := len(samples[0])
	width := len(samples[0][0])

	resampled := make([][][]float32, len(samples))
	for i, s := range samples {
		resampled[i] = resampleFrames(s, targetLength)
	}

	averaged := make([][]float32, targetLength)
	n := float32(len(samples))
	for i := 0; i < targetLength; i++ {
		frame := make([]float32, width)
		for _, s := range resampled {
			for k := 0; k < width && k < len(s[i]); k++ {
				frame[k] += s[i][k]
			}
		}
		for k := range frame {
			frame[k] /= n
		}
		averaged[i] = frame
	}

	return Template{Label: label, Frames: averaged}, nil
}

// resampleFrames resamples a sequence to exactly targetLength frames.
// Uses linear interpolation for smooth resampling.
func resampleFrames(seq [][]float32, targetLength int) [][]float32 {
	if len(seq) == 0 {
		return nil
	}
	if len(seq) == 1 || targetLength <= 1 {
		return [][]float32{seq[0]}
	}

	result := make([][]float32, targetLength)
	for i := 0; i < targetLength; i++ {
		// Map index i to a position in the original sequence
		t := float64(i) / float64(targetLength-1)
		pos := t * float64(len(seq)-1)

		idx := int(pos)
		if idx >= len(seq)-1 {
			idx = len(seq) - 2
		}
		frac := float32(pos - float64(idx))

		a, b := seq[idx], seq[idx+1]
		frame := make([]float32, min(len(a), len(b)))
		for k := range frame {
			frame[k] = a[k] + frac*(b[k]-a[k])
		}
		result[i] = frame
	}
	return result
}

var captureName = regexp.MustCompile(`^(.+)_\d+\.csv$`)

// LoadTemplates reads every "{gesture}_{n}.csv" capture in dir and trains one template
// per gesture name. Templates are sorted by label.
func (t *Trainer) LoadTemplates(dir string) ([]Template, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][][][]float32)
	for _, path := range paths {
		m := captureName.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		tensor, err := readCapture(path)
		if err != nil {
			return nil, err
		}
		if len(tensor) < 2 {
			continue
		}
		grouped[m[1]] = append(grouped[m[1]], tensor)
	}

	labels := make([]string, 0, len(grouped))
	for label := range grouped {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	templates := make([]Template, 0, len(labels))
	for _, label := range labels {
		tpl, err := t.Train(label, grouped[label])
		if err != nil {
			return nil, fmt.Errorf("train %s: %w", label, err)
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

func readCapture(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames, err := export.ReadFrames(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FramesToTensor(frames), nil
}
