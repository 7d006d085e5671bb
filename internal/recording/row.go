// Package recording aggregates per-frame landmark results into frame-aligned rows.
package recording

import (
	"fmt"

	"github.com/ayusman/landmarkscollector/internal/landmark"
)

// RowID identifies one output row: frame, type label and landmark index.
type RowID string

// MakeRowID builds the row id "{frame}-{label}-{index}".
func MakeRowID(frame uint, t landmark.Type, index uint) RowID {
	return RowID(fmt.Sprintf("%d-%s-%d", frame, t.Label(), index))
}

// Key addresses a landmark inside a single frame.
type Key struct {
	Type  landmark.Type
	Index uint
}

// FrameRow is one landmark observed (or expected) in one frame.
// Nil coordinates mean the landmark was not detected.
type FrameRow struct {
	Frame uint
	Index uint
	ID    RowID
	Type  landmark.Type
	X     *float32
	Y     *float32
	Z     *float32
}

// RowFrom builds the row for a detected landmark.
func RowFrom(frame uint, l landmark.Landmark) FrameRow {
	x, y, z := l.X, l.Y, l.Z
	return FrameRow{
		Frame: frame,
		Index: l.Index,
		ID:    MakeRowID(frame, l.Type, l.Index),
		Type:  l.Type,
		X:     &x,
		Y:     &y,
		Z:     &z,
	}
}

// Placeholder builds the empty row for a landmark that was expected but not observed.
func Placeholder(frame uint, t landmark.Type, index uint) FrameRow {
	return FrameRow{
		Frame: frame,
		Index: index,
		ID:    MakeRowID(frame, t, index),
		Type:  t,
	}
}

// IsPlaceholder reports whether all coordinates are absent.
func (r FrameRow) IsPlaceholder() bool {
	return r.X == nil && r.Y == nil && r.Z == nil
}

// XY returns the x and y coordinates, using zero for absent values.
func (r FrameRow) XY() (float32, float32) {
	var x, y float32
	if r.X != nil {
		x = *r.X
	}
	if r.Y != nil {
		y = *r.Y
	}
	return x, y
}

// Snapshot holds the rows of one frame keyed by type and index.
// A Snapshot is never modified after it has been built.
type Snapshot struct {
	frame uint
	rows  map[Key]FrameRow
}

// NewSnapshot builds the snapshot of one frame. Landmarks sharing a type and index
// overwrite each other; the last one wins.
func NewSnapshot(frame uint, landmarks []landmark.Landmark) Snapshot {
	rows := make(map[Key]FrameRow, len(landmarks))
	for _, l := range landmarks {
		rows[Key{Type: l.Type, Index: l.Index}] = RowFrom(frame, l)
	}
	return Snapshot{frame: frame, rows: rows}
}

// Frame returns the frame number the snapshot was taken at.
func (s Snapshot) Frame() uint {
	return s.frame
}

// Len returns the number of detected landmarks in the frame.
func (s Snapshot) Len() int {
	return len(s.rows)
}

// Row returns the detected row for the key.
func (s Snapshot) Row(t landmark.Type, index uint) (FrameRow, bool) {
	r, ok := s.rows[Key{Type: t, Index: index}]
	return r, ok
}

// RowOrPlaceholder returns the detected row or an empty placeholder carrying the same
// frame, type and index.
func (s Snapshot) RowOrPlaceholder(t landmark.Type, index uint) FrameRow {
	if r, ok := s.Row(t, index); ok {
		return r
	}
	return Placeholder(s.frame, t, index)
}
