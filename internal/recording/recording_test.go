package recording

import (
	"fmt"
	"testing"

	"github.com/ayusman/landmarkscollector/internal/landmark"
)

func rightHand(n int) []landmark.Landmark {
	out := make([]landmark.Landmark, n)
	for i := range out {
		out[i] = landmark.Landmark{Type: landmark.RightHand, Index: uint(i), X: float32(i) / 100, Y: 0.5, Z: 0.1}
	}
	return out
}

func TestMakeRowID(t *testing.T) {
	if got := MakeRowID(0, landmark.RightHand, 20); got != "0-right_hand-20" {
		t.Errorf("MakeRowID() = %q", got)
	}
	if got := MakeRowID(12, landmark.Face, 467); got != "12-face-467" {
		t.Errorf("MakeRowID() = %q", got)
	}
}

func TestRecording_Ingest(t *testing.T) {
	t.Run("right hand at frame 0", func(t *testing.T) {
		rec := New().Ingest(rightHand(21))

		if rec.Frames() != 1 {
			t.Fatalf("Frames() = %d, want 1", rec.Frames())
		}
		if rec.Len() != 21 {
			t.Fatalf("Len() = %d, want 21", rec.Len())
		}
		for i := 0; i < 21; i++ {
			id := RowID(fmt.Sprintf("0-right_hand-%d", i))
			row, ok := rec.Lookup(0, landmark.RightHand, uint(i))
			if !ok {
				t.Fatalf("row %s missing", id)
			}
			if row.ID != id || row.Frame != 0 || row.Index != uint(i) || row.Type != landmark.RightHand {
				t.Errorf("row %s = %+v", id, row)
			}
		}
	})

	t.Run("frame counter advances once per call", func(t *testing.T) {
		rec := New()
		sizes := []int{0, 21, 0, 3, 21, 0}
		for i, n := range sizes {
			rec = rec.Ingest(rightHand(n))
			if rec.Frames() != uint(i+1) {
				t.Fatalf("after call %d Frames() = %d", i, rec.Frames())
			}
		}
		if _, ok := rec.Lookup(0, landmark.RightHand, 0); ok {
			t.Error("empty frame 0 should have no rows")
		}
		if _, ok := rec.Lookup(1, landmark.RightHand, 0); !ok {
			t.Error("frame 1 should have rows")
		}
	})

	t.Run("same key overwrites", func(t *testing.T) {
		a := landmark.Landmark{Type: landmark.Pose, Index: 4, X: 0.1, Y: 0.1, Z: 0.1}
		b := landmark.Landmark{Type: landmark.Pose, Index: 4, X: 0.9, Y: 0.8, Z: 0.7}
		rec := New().Ingest([]landmark.Landmark{a, b})

		if rec.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", rec.Len())
		}
		row, ok := rec.Lookup(0, landmark.Pose, 4)
		if !ok {
			t.Fatal("row missing")
		}
		if *row.X != 0.9 || *row.Y != 0.8 || *row.Z != 0.7 {
			t.Errorf("row = %v %v %v, want b's coordinates", *row.X, *row.Y, *row.Z)
		}
	})

	t.Run("older values are not aliased", func(t *testing.T) {
		base := New().Ingest(rightHand(1)).Ingest(nil)
		left := base.Ingest(rightHand(2))
		right := base.Ingest(nil)

		if left.Frames() != 3 || right.Frames() != 3 || base.Frames() != 2 {
			t.Fatalf("frames = %d %d %d", base.Frames(), left.Frames(), right.Frames())
		}
		if _, ok := left.Lookup(2, landmark.RightHand, 1); !ok {
			t.Error("left branch lost its frame")
		}
		if _, ok := right.Lookup(2, landmark.RightHand, 1); ok {
			t.Error("right branch sees left branch's rows")
		}
	})
}

func TestSnapshot_RowOrPlaceholder(t *testing.T) {
	snap := NewSnapshot(7, rightHand(1))

	row := snap.RowOrPlaceholder(landmark.RightHand, 0)
	if row.IsPlaceholder() {
		t.Error("detected row reported as placeholder")
	}

	ph := snap.RowOrPlaceholder(landmark.LeftHand, 3)
	if !ph.IsPlaceholder() {
		t.Error("missing row should be a placeholder")
	}
	if ph.ID != "7-left_hand-3" || ph.Frame != 7 {
		t.Errorf("placeholder = %+v", ph)
	}
	x, y := ph.XY()
	if x != 0 || y != 0 {
		t.Errorf("placeholder XY = %v %v, want zeros", x, y)
	}
}

func TestStream_Types(t *testing.T) {
	if got := HandsStream.Types(); len(got) != 2 || got[0] != landmark.RightHand {
		t.Errorf("HandsStream.Types() = %v", got)
	}
	if got := FacePoseStream.Types(); len(got) != 2 || got[0] != landmark.Face {
		t.Errorf("FacePoseStream.Types() = %v", got)
	}
}
