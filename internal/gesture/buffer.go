// Package gesture classifies live landmark windows into gesture labels.
package gesture

import (
	"slices"

	"github.com/ayusman/landmarkscollector/internal/landmark"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

// DefaultBufferSize is the number of frames per classification window.
const DefaultBufferSize = 30

// Window is a fixed-capacity ring of the most recent frames of one stream.
// Push returns a new Window; the receiver is left untouched.
type Window struct {
	capacity int
	frames   []recording.Snapshot
}

// NewWindow creates an empty window holding up to capacity frames.
func NewWindow(capacity int) Window {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return Window{capacity: capacity}
}

// Push appends a frame, evicting the oldest one once the window is full.
func (w Window) Push(snap recording.Snapshot) Window {
	frames := w.frames
	if len(frames) >= w.capacity {
		frames = frames[len(frames)-w.capacity+1:]
	}
	return Window{capacity: w.capacity, frames: append(slices.Clip(frames), snap)}
}

// Full reports whether the window holds capacity frames.
func (w Window) Full() bool {
	return w.capacity > 0 && len(w.frames) == w.capacity
}

// Len returns the number of buffered frames.
func (w Window) Len() int {
	return len(w.frames)
}

// Frames returns the buffered frames, oldest first.
func (w Window) Frames() []recording.Snapshot {
	return slices.Clone(w.frames)
}

// Buffer holds the hands and face+pose windows fed while the session is idle.
type Buffer struct {
	hands    Window
	facePose Window
	handsN   uint
	faceN    uint
}

// NewBuffer creates a buffer whose windows hold size frames each.
func NewBuffer(size int) Buffer {
	return Buffer{hands: NewWindow(size), facePose: NewWindow(size)}
}

// PushHands records one hands callback.
func (b Buffer) PushHands(landmarks []landmark.Landmark) Buffer {
	b.hands = b.hands.Push(recording.NewSnapshot(b.handsN, landmarks))
	b.handsN++
	return b
}

// PushFacePose records one face+pose callback.
func (b Buffer) PushFacePose(landmarks []landmark.Landmark) Buffer {
	b.facePose = b.facePose.Push(recording.NewSnapshot(b.faceN, landmarks))
	b.faceN++
	return b
}

// Ready reports whether both windows are full.
func (b Buffer) Ready() bool {
	return b.hands.Full() && b.facePose.Full()
}

// Hands returns the hands window.
func (b Buffer) Hands() Window {
	return b.hands
}

// FacePose returns the face+pose window.
func (b Buffer) FacePose() Window {
	return b.facePose
}

// Tensor flattens the windows into [frames][2*landmark.PerFrame] values. Frame i pairs
// the i-th buffered hands frame with the i-th buffered face+pose frame and lists x, y of
// every landmark in canonical type order, with zeros for undetected landmarks.
func Tensor(hands, facePose Window) [][]float32 {
	n := min(hands.Len(), facePose.Len())
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		row := make([]float32, 0, 2*landmark.PerFrame)
		for _, t := range landmark.Order {
			snap := facePose.frames[i]
			if t == landmark.RightHand || t == landmark.LeftHand {
				snap = hands.frames[i]
			}
			for index := uint(0); index < uint(t.Count()); index++ {
				x, y := snap.RowOrPlaceholder(t, index).XY()
				row = append(row, x, y)
			}
		}
		out[i] = row
	}
	return out
}
