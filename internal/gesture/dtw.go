package gesture

import (
	"context"
	"fmt"
	"math"
)

// DTWDistance calculates Dynamic Time Warping distance between two frame sequences.
// Returns infinity if either sequence is empty.
// The distance is normalized by the longer sequence length.
func DTWDistance(seq1, seq2 [][]float32) float64 {
	n := len(seq1)
	m := len(seq2)

	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// (n+1) x (m+1) cost matrix initialized to infinity
	dtw := make([][]float64, n+1)
	for i := range dtw {
		dtw[i] = make([]float64, m+1)
		for j := range dtw[i] {
			dtw[i][j] = math.Inf(1)
		}
	}
	dtw[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := frameDistance(seq1[i-1], seq2[j-1])
			dtw[i][j] = cost + min3(dtw[i-1][j], dtw[i][j-1], dtw[i-1][j-1])
		}
	}

	return dtw[n][m] / float64(max(n, m))
}

// frameDistance is the mean 2D distance between corresponding landmarks of two
// flattened x,y frames.
func frameDistance(a, b []float32) float64 {
	points := min(len(a), len(b)) / 2
	if points == 0 {
		return 0
	}

	var total float64
	for p := 0; p < points; p++ {
		dx := float64(a[2*p] - b[2*p])
		dy := float64(a[2*p+1] - b[2*p+1])
		total += math.Sqrt(dx*dx + dy*dy)
	}
	return total / float64(points)
}

// min3 returns the minimum of three float64 values.
func min3(a, b, c float64) float64 {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}

// Template is a reference sequence for one label.
type Template struct {
	Label  string
	Frames [][]float32
}

// TemplateClassifier scores windows against templates with DTW. The probability of a
// label is its score 1/(1+distance) divided by the sum of all scores.
type TemplateClassifier struct {
	templates []Template
	labels    []string
}

// NewTemplateClassifier creates a classifier over the given templates. Labels follow
// template order.
func NewTemplateClassifier(templates []Template) (*TemplateClassifier, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("no templates provided")
	}
	labels := make([]string, len(templates))
	for i, t := range templates {
		if len(t.Frames) == 0 {
			return nil, fmt.Errorf("template %q has no frames", t.Label)
		}
		labels[i] = t.Label
	}
	return &TemplateClassifier{templates: templates, labels: labels}, nil
}

// Labels implements Classifier.
func (c *TemplateClassifier) Labels() []string {
	return c.labels
}

// Run implements Classifier.
func (c *TemplateClassifier) Run(ctx context.Context, tensor [][]float32) ([]float32, error) {
	scores := make([]float64, len(c.templates))
	var sum float64
	for i, t := range c.templates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		distance := DTWDistance(tensor, t.Frames)
		if math.IsInf(distance, 1) {
			continue
		}
		scores[i] = 1.0 / (1.0 + distance)
		sum += scores[i]
	}

	probs := make([]float32, len(scores))
	if sum == 0 {
		return probs, nil
	}
	for i, s := range scores {
		probs[i] = float32(s / sum)
	}
	return probs, nil
}

// Close implements Classifier.
func (c *TemplateClassifier) Close() error {
	return nil
}
