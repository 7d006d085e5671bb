// Package export turns finished recordings into gap-filled CSV datasets.
package export

import (
	"github.com/ayusman/landmarkscollector/internal/landmark"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

// Rows builds the fixed-shape row sequence for one gesture capture.
//
// Output covers min(hands.Frames(), facePose.Frames()) frames. Each frame lists every
// landmark of Face, RightHand, LeftHand and Pose in that order; landmarks that were not
// detected are emitted as placeholders. The result depends only on the inputs.
func Rows(hands, facePose recording.Recording) []recording.FrameRow {
	total := min(hands.Frames(), facePose.Frames())
	rows := make([]recording.FrameRow, 0, int(total)*landmark.PerFrame)

	for frame := uint(0); frame < total; frame++ {
		handSnap, _ := hands.Frame(frame)
		facePoseSnap, _ := facePose.Frame(frame)
		for _, t := range landmark.Order {
			snap := facePoseSnap
			if t == landmark.RightHand || t == landmark.LeftHand {
				snap = handSnap
			}
			for index := uint(0); index < uint(t.Count()); index++ {
				rows = append(rows, fill(snap, frame, t, index))
			}
		}
	}
	return rows
}

// fill returns the detected row, or a placeholder stamped with the output frame.
func fill(snap recording.Snapshot, frame uint, t landmark.Type, index uint) recording.FrameRow {
	if row, ok := snap.Row(t, index); ok {
		return row
	}
	return recording.Placeholder(frame, t, index)
}
