package gesture

import (
	"context"
	"fmt"
	"sort"
)

// Classifier scores a [frames][2*landmark.PerFrame] tensor against a fixed label list.
type Classifier interface {
	// Labels returns the labels in the order Run reports probabilities.
	Labels() []string

	// Run returns one probability per label.
	Run(ctx context.Context, tensor [][]float32) ([]float32, error)

	// Close releases any resources held by the classifier.
	Close() error
}

// Rate is the confidence for one label.
type Rate struct {
	Label       string  `json:"label"`
	Probability float32 `json:"probability"`
}

// Rates maps the classifier's probabilities onto its labels, best first.
type Rates []Rate

// MapRates pairs probabilities with labels. The lengths must match.
func MapRates(labels []string, probs []float32) (Rates, error) {
	if len(labels) != len(probs) {
		return nil, fmt.Errorf("classifier returned %d probabilities for %d labels", len(probs), len(labels))
	}
	rates := make(Rates, len(labels))
	for i, label := range labels {
		rates[i] = Rate{Label: label, Probability: probs[i]}
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].Probability > rates[j].Probability
	})
	return rates, nil
}

// Top returns the most likely label, or false when there are no rates.
func (r Rates) Top() (Rate, bool) {
	if len(r) == 0 {
		return Rate{}, false
	}
	return r[0], true
}

// Classify builds the tensor from the buffer and runs the classifier.
func Classify(ctx context.Context, c Classifier, hands, facePose Window) (Rates, error) {
	tensor := Tensor(hands, facePose)
	if len(tensor) == 0 {
		return nil, fmt.Errorf("empty classification window")
	}
	probs, err := c.Run(ctx, tensor)
	if err != nil {
		return nil, fmt.Errorf("run classifier: %w", err)
	}
	return MapRates(c.Labels(), probs)
}
