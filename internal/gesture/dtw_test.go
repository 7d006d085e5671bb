package gesture

import (
	"context"
	"math"
	"testing"
)

func seq(values ...float32) [][]float32 {
	out := make([][]float32, len(values))
	for i, v := range values {
		out[i] = []float32{v, 0}
	}
	return out
}

func TestDTW_IdenticalSequences(t *testing.T) {
	s := seq(0, 1, 2)

	if distance := DTWDistance(s, s); distance != 0 {
		t.Errorf("expected distance 0 for identical sequences, got %f", distance)
	}
}

func TestDTW_DifferentSequences(t *testing.T) {
	if distance := DTWDistance(seq(0, 1, 2), seq(2, 3, 4)); distance <= 0 {
		t.Errorf("expected distance > 0 for different sequences, got %f", distance)
	}
}

func TestDTW_SpeedInvariant(t *testing.T) {
	// Same trajectory at different speeds
	fast := seq(0, 1, 2)
	slow := seq(0, 0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2)

	if distance := DTWDistance(fast, slow); distance > 0.5 {
		t.Errorf("expected low distance for speed-invariant sequences, got %f", distance)
	}
}

func TestDTW_EmptySequences(t *testing.T) {
	s := seq(0, 1)

	if d := DTWDistance(nil, nil); !math.IsInf(d, 1) {
		t.Errorf("expected infinity for empty sequences, got %f", d)
	}
	if d := DTWDistance(nil, s); !math.IsInf(d, 1) {
		t.Errorf("expected infinity when first sequence is empty, got %f", d)
	}
	if d := DTWDistance(s, nil); !math.IsInf(d, 1) {
		t.Errorf("expected infinity when second sequence is empty, got %f", d)
	}
}

func TestFrameDistance(t *testing.T) {
	a := []float32{0, 0, 1, 1}
	b := []float32{3, 4, 1, 1}

	// (5 + 0) / 2 points
	if d := frameDistance(a, b); math.Abs(d-2.5) > 1e-9 {
		t.Errorf("frameDistance() = %f, want 2.5", d)
	}
	if d := frameDistance(nil, b); d != 0 {
		t.Errorf("frameDistance(nil) = %f, want 0", d)
	}
}

func TestMin3(t *testing.T) {
	tests := []struct {
		a, b, c  float64
		expected float64
	}{
		{1, 2, 3, 1},
		{3, 1, 2, 1},
		{2, 3, 1, 1},
		{1, 1, 1, 1},
		{math.Inf(1), 5, math.Inf(1), 5},
	}

	for _, tt := range tests {
		if got := min3(tt.a, tt.b, tt.c); got != tt.expected {
			t.Errorf("min3(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.c, got, tt.expected)
		}
	}
}

func TestTemplateClassifier(t *testing.T) {
	t.Run("closest template wins", func(t *testing.T) {
		c, err := NewTemplateClassifier([]Template{
			{Label: "up", Frames: seq(0, 0.5, 1)},
			{Label: "down", Frames: seq(1, 0.5, 0)},
		})
		if err != nil {
			t.Fatalf("NewTemplateClassifier() error = %v", err)
		}

		probs, err := c.Run(context.Background(), seq(0, 0.25, 0.5, 0.75, 1))
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(probs) != 2 {
			t.Fatalf("len(probs) = %d, want 2", len(probs))
		}
		if probs[0] <= probs[1] {
			t.Errorf("expected 'up' to win, got %v", probs)
		}
		if sum := probs[0] + probs[1]; math.Abs(float64(sum)-1) > 1e-5 {
			t.Errorf("probabilities sum to %f, want 1", sum)
		}
	})

	t.Run("rejects empty templates", func(t *testing.T) {
		if _, err := NewTemplateClassifier(nil); err == nil {
			t.Error("expected error for no templates")
		}
		if _, err := NewTemplateClassifier([]Template{{Label: "x"}}); err == nil {
			t.Error("expected error for template without frames")
		}
	})

	t.Run("empty window scores zero", func(t *testing.T) {
		c, _ := NewTemplateClassifier([]Template{{Label: "up", Frames: seq(0, 1)}})
		probs, err := c.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if probs[0] != 0 {
			t.Errorf("probs = %v, want zeros", probs)
		}
	})
}
