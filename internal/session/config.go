// Package session drives the gesture recording lifecycle: a pure reducer over
// phases, an actor that runs the resulting commands, and a single-goroutine inbox.
package session

import (
	"time"

	"github.com/ayusman/landmarkscollector/internal/gesture"
)

// Config holds the recording timeline constants.
type Config struct {
	// DelayTicks is the countdown before each capture starts.
	DelayTicks int
	// RecordingTicks is the length of one capture.
	RecordingTicks int
	// TotalGestures is the number of captures per session.
	TotalGestures int
	// BufferSize is the classifier window length in frames.
	BufferSize int
	// TickInterval is the wall-clock length of one tick.
	TickInterval time.Duration
}

// DefaultConfig returns a Config with the standard timeline.
func DefaultConfig() Config {
	return Config{
		DelayTicks:     3,
		RecordingTicks: 5,
		TotalGestures:  10,
		BufferSize:     gesture.DefaultBufferSize,
		TickInterval:   time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DelayTicks <= 0 {
		c.DelayTicks = d.DelayTicks
	}
	if c.RecordingTicks <= 0 {
		c.RecordingTicks = d.RecordingTicks
	}
	if c.TotalGestures <= 0 {
		c.TotalGestures = d.TotalGestures
	}
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	return c
}
