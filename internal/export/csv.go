package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ayusman/landmarkscollector/internal/landmark"
	"github.com/ayusman/landmarkscollector/internal/recording"
)

// CSV layout shared by the writer and the reader.
const (
	Separator = ';'
	MIMEType  = "text/csv"
)

// Header is the first line of every exported file.
var Header = []string{"frame", "landmark_index", "row_id", "type", "x", "y", "z"}

// ProgressFunc receives the integer percentage of rows serialized so far.
type ProgressFunc func(percent int)

// ProgressStep returns how many rows make up one percent of the output.
func ProgressStep(rowCount int) int {
	step := (rowCount + 99) / 100
	if step < 1 {
		step = 1
	}
	return step
}

// WriteCSV serializes rows with the ';' separator and blank cells for absent coordinates.
// progress, when non-nil, is called after every ProgressStep(len(rows)) rows.
func WriteCSV(w io.Writer, rows []recording.FrameRow, progress ProgressFunc) error {
	cw := csv.NewWriter(w)
	cw.Comma = Separator

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	step := ProgressStep(len(rows))
	record := make([]string, len(Header))
	for i, row := range rows {
		record[0] = strconv.FormatUint(uint64(row.Frame), 10)
		record[1] = strconv.FormatUint(uint64(row.Index), 10)
		record[2] = string(row.ID)
		record[3] = row.Type.Label()
		record[4] = formatCoord(row.X)
		record[5] = formatCoord(row.Y)
		record[6] = formatCoord(row.Z)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.ID, err)
		}

		done := i + 1
		if progress != nil && done%step == 0 {
			progress(done / step)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCoord(v *float32) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(float64(*v), 'f', -1, 32)
}

// Frame is one frame read back from an exported file.
type Frame struct {
	Number    uint
	Landmarks []landmark.Landmark
}

// ReadFrames parses an exported file and groups the detected landmarks by frame.
// Placeholder rows keep their frame in the output but contribute no landmark.
func ReadFrames(r io.Reader) ([]Frame, error) {
	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.FieldsPerRecord = len(Header)

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var frames []Frame
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		frameNum, err := strconv.ParseUint(record[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse frame %q: %w", record[0], err)
		}
		if len(frames) == 0 || frames[len(frames)-1].Number != uint(frameNum) {
			frames = append(frames, Frame{Number: uint(frameNum)})
		}

		if record[4] == "" || record[5] == "" || record[6] == "" {
			continue
		}

		l, err := parseLandmark(record)
		if err != nil {
			return nil, err
		}
		last := &frames[len(frames)-1]
		last.Landmarks = append(last.Landmarks, l)
	}
	return frames, nil
}

func parseLandmark(record []string) (landmark.Landmark, error) {
	index, err := strconv.ParseUint(record[1], 10, 32)
	if err != nil {
		return landmark.Landmark{}, fmt.Errorf("parse landmark index %q: %w", record[1], err)
	}
	t, err := landmark.ParseType(record[3])
	if err != nil {
		return landmark.Landmark{}, err
	}

	var coords [3]float32
	for i := range coords {
		v, err := strconv.ParseFloat(record[4+i], 32)
		if err != nil {
			return landmark.Landmark{}, fmt.Errorf("parse coordinate %q of %s: %w", record[4+i], record[2], err)
		}
		coords[i] = float32(v)
	}
	return landmark.New(t, uint(index), coords[0], coords[1], coords[2])
}
