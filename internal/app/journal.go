package app

import (
	"errors"
	"strconv"

	"github.com/ayusman/landmarkscollector/internal/session"
	"github.com/ayusman/landmarkscollector/internal/store"
)

// Journal records saved captures and session settings in the sqlite store.
type Journal struct {
	store *store.Store
}

// NewJournal creates a Journal over s.
func NewJournal(s *store.Store) *Journal {
	return &Journal{store: s}
}

// CaptureSaved implements session.Journal.
func (j *Journal) CaptureSaved(gestureName string, gestureIndex int, saved session.Saved) error {
	return j.store.Captures().Create(&store.Capture{
		GestureName:  gestureName,
		GestureIndex: gestureIndex,
		Path:         saved.Handle.Path,
		Frames:       saved.Frames,
		Rows:         saved.Rows,
	})
}

// SettingsChanged implements session.Journal.
func (j *Journal) SettingsChanged(s session.Settings) error {
	return j.store.Settings().SetAll(map[string]string{
		store.SettingDirectory:   s.Directory,
		store.SettingGestureName: s.GestureName,
		store.SettingFrontFacing: strconv.FormatBool(s.FrontFacing),
	})
}

// Restored holds the settings persisted by a previous run.
type Restored struct {
	Directory   string
	GestureName string
	FrontFacing bool
	Found       bool
}

// Restore reads the persisted settings. Missing keys leave their field empty.
func (j *Journal) Restore() (Restored, error) {
	values, err := j.store.Settings().All()
	if err != nil {
		return Restored{}, err
	}
	if len(values) == 0 {
		return Restored{FrontFacing: true}, nil
	}

	r := Restored{
		Directory:   values[store.SettingDirectory],
		GestureName: values[store.SettingGestureName],
		FrontFacing: true,
		Found:       true,
	}
	if v, ok := values[store.SettingFrontFacing]; ok {
		front, err := strconv.ParseBool(v)
		if err != nil {
			return Restored{}, errors.Join(errors.New("invalid front_facing setting"), err)
		}
		r.FrontFacing = front
	}
	return r, nil
}

// Captures returns the most recent captures, newest first.
func (j *Journal) Captures(limit int) ([]*store.Capture, error) {
	return j.store.Captures().List(limit)
}
