package recording

import (
	"slices"

	"github.com/ayusman/landmarkscollector/internal/landmark"
)

// Stream names one of the two recorded streams.
type Stream string

const (
	// HandsStream carries left and right hand landmarks.
	HandsStream Stream = "hands"
	// FacePoseStream carries face mesh and body pose landmarks.
	FacePoseStream Stream = "face_pose"
)

// Types returns the landmark types recorded on the stream, in canonical order.
func (s Stream) Types() []landmark.Type {
	switch s {
	case HandsStream:
		return []landmark.Type{landmark.RightHand, landmark.LeftHand}
	case FacePoseStream:
		return []landmark.Type{landmark.Face, landmark.Pose}
	}
	return nil
}

// Recording is the capture of one stream during one gesture. The zero value is an
// empty recording at frame 0.
//
// Recordings are values: Ingest returns a new Recording and never touches the
// receiver, so a recording handed to the exporter cannot change underneath it.
type Recording struct {
	frames []Snapshot
}

// New returns an empty recording.
func New() Recording {
	return Recording{}
}

// Frames returns the frame counter: the number of source callbacks ingested so far.
func (r Recording) Frames() uint {
	return uint(len(r.frames))
}

// Ingest merges one source callback into the recording. Every landmark is keyed by
// (frame, type, index) and the frame counter advances by exactly one, including when
// no landmark was detected.
func (r Recording) Ingest(landmarks []landmark.Landmark) Recording {
	snap := NewSnapshot(r.Frames(), landmarks)
	// Clip forces append to copy, so older values keep their own backing array.
	return Recording{frames: append(slices.Clip(r.frames), snap)}
}

// Frame returns the snapshot at the given frame.
func (r Recording) Frame(frame uint) (Snapshot, bool) {
	if frame >= r.Frames() {
		return Snapshot{}, false
	}
	return r.frames[frame], true
}

// Lookup returns the row with the given frame, type and index.
func (r Recording) Lookup(frame uint, t landmark.Type, index uint) (FrameRow, bool) {
	snap, ok := r.Frame(frame)
	if !ok {
		return FrameRow{}, false
	}
	return snap.Row(t, index)
}

// Len returns the number of detected rows across all frames.
func (r Recording) Len() int {
	n := 0
	for _, snap := range r.frames {
		n += snap.Len()
	}
	return n
}
