package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidName is returned when a gesture name has nothing left after trimming.
var ErrInvalidName = errors.New("invalid gesture name")

var whitespace = regexp.MustCompile(`\s+`)

// FileName returns the base name for a gesture capture: "{gestureName}_{gestureIndex}"
// with runs of whitespace collapsed to "_".
func FileName(gestureName string, gestureIndex int) (string, error) {
	name := whitespace.ReplaceAllString(strings.TrimSpace(gestureName), "_")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, gestureName)
	}
	return name + "_" + strconv.Itoa(gestureIndex), nil
}

// DirCreator creates capture files inside a local directory.
type DirCreator struct{}

// CreateFile creates an empty "{gestureName}_{gestureIndex}.csv" inside directory.
// An existing file with the same name is truncated.
func (DirCreator) CreateFile(directory, gestureName string, gestureIndex int) (Handle, error) {
	base, err := FileName(gestureName, gestureIndex)
	if err != nil {
		return Handle{}, err
	}

	info, err := os.Stat(directory)
	if err != nil {
		return Handle{}, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return Handle{}, fmt.Errorf("%s is not a directory", directory)
	}

	path := filepath.Join(directory, base+".csv")
	f, err := os.Create(path)
	if err != nil {
		return Handle{}, fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return Handle{}, fmt.Errorf("close %s: %w", path, err)
	}

	return Handle{Path: path, Name: base, MIMEType: MIMEType}, nil
}

// FSWriter writes payloads to the local filesystem. The data is written to a temporary
// file next to the target and renamed over it, so a failed write leaves no partial file.
type FSWriter struct{}

// WriteFile writes data to h.Path.
func (FSWriter) WriteFile(ctx context.Context, data []byte, h Handle) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}

	dir := filepath.Dir(h.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(h.Path)+".*")
	if err != nil {
		return Handle{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Handle{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return Handle{}, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Handle{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, h.Path); err != nil {
		return Handle{}, fmt.Errorf("rename to %s: %w", h.Path, err)
	}

	return h, nil
}
