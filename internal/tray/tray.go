// Package tray provides a system tray menu that mirrors and drives the recording session.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/landmarkscollector/internal/session"
)

// Session is the part of the recording session the tray needs.
type Session interface {
	Dispatch(e session.Event) bool
	Subscribe() (<-chan session.State, func())
}

// Tray represents the system tray application.
type Tray struct {
	session Session
	total   int

	onOpen func()
	onQuit func()
	mu     sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuStart  *systray.MenuItem
	menuPause  *systray.MenuItem
	menuResume *systray.MenuItem
	menuStop   *systray.MenuItem
	menuRetry  *systray.MenuItem
	menuCamera *systray.MenuItem
}

// New creates a new Tray over s. totalGestures is shown in the status line.
func New(s Session, totalGestures int) *Tray {
	return &Tray{session: s, total: totalGestures}
}

// OnOpen sets the callback function to be called when the open menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the tray loop.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Landmarks")
	systray.SetTooltip("Landmarks Collector")

	t.menuStatus = systray.AddMenuItem("Starting...", "Session status")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuStart = systray.AddMenuItem("Start", "Start recording gestures")
	t.menuPause = systray.AddMenuItem("Pause", "Pause the countdown")
	t.menuResume = systray.AddMenuItem("Resume", "Resume the countdown")
	t.menuStop = systray.AddMenuItem("Stop", "Stop the session")
	t.menuRetry = systray.AddMenuItem("Retry save", "Retry the failed export")
	t.menuCamera = systray.AddMenuItem("Switch camera", "Toggle front and back camera")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open...", "Open the collector in the browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit the collector")

	states, unsubscribe := t.session.Subscribe()

	go func() {
		defer unsubscribe()
		for {
			select {
			case s := <-states:
				t.apply(MenuFor(s, t.total))
			case <-t.menuStart.ClickedCh:
				t.session.Dispatch(session.StartPressed{})
			case <-t.menuPause.ClickedCh:
				t.session.Dispatch(session.PausePressed{})
			case <-t.menuResume.ClickedCh:
				t.session.Dispatch(session.ResumePressed{})
			case <-t.menuStop.ClickedCh:
				t.session.Dispatch(session.StopPressed{})
			case <-t.menuRetry.ClickedCh:
				t.session.Dispatch(session.RetryPressed{})
			case <-t.menuCamera.ClickedCh:
				t.session.Dispatch(session.ToggleCamera{})
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func (t *Tray) apply(m Menu) {
	t.menuStatus.SetTitle(m.Status)
	setEnabled(t.menuStart, m.Start)
	setEnabled(t.menuPause, m.Pause)
	setEnabled(t.menuResume, m.Resume)
	setEnabled(t.menuStop, m.Stop)
	setEnabled(t.menuRetry, m.Retry)
	setEnabled(t.menuCamera, m.Camera)
}

func setEnabled(item *systray.MenuItem, enabled bool) {
	if enabled {
		item.Enable()
	} else {
		item.Disable()
	}
}

// handleOpen handles the open menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Menu is the status line and the enabled controls for one session state.
type Menu struct {
	Status string
	Start  bool
	Pause  bool
	Resume bool
	Stop   bool
	Retry  bool
	Camera bool
}

// MenuFor derives the menu from a session state.
func MenuFor(s session.State, total int) Menu {
	st := session.SettingsOf(s)
	m := Menu{}

	switch s := s.(type) {
	case session.NoCamera:
		m.Status = "No camera"
	case session.WaitingForConfig:
		m.Status = "Waiting for directory and gesture name"
		if top, ok := s.Rates.Top(); ok {
			m.Status = fmt.Sprintf("Idle · %s %.0f%%", top.Label, top.Probability*100)
		}
		if s.Completed {
			m.Status = fmt.Sprintf("Saved %d/%d · confirm gesture name to record again", total, total)
		}
		m.Camera = st.Cameras.Both()
	case session.ReadyToRecord:
		m.Status = fmt.Sprintf("Ready: %s", st.GestureName)
		m.Start = true
		m.Camera = st.Cameras.Both()
	case session.PreparingForGesture:
		m.Status = fmt.Sprintf("%s %d/%d · get ready %d", st.GestureName, s.GestureIndex, total, s.DelayTicks)
		m.Pause, m.Resume = !s.Paused, s.Paused
		m.Stop = true
	case session.RecordingMotion:
		m.Status = fmt.Sprintf("%s %d/%d · recording %d", st.GestureName, s.GestureIndex, total, s.TimeLeft)
		m.Pause, m.Resume = !s.Paused, s.Paused
		m.Stop = true
	case session.SavingMotion:
		m.Status = fmt.Sprintf("%s %d/%d · saving %d%%", st.GestureName, s.GestureIndex, total, s.Progress)
	case session.ExportFailed:
		m.Status = fmt.Sprintf("Save failed: %s", s.Message)
		m.Retry = true
		m.Stop = true
	}

	if p, ok := s.(session.Pausable); ok && p.IsPaused() {
		m.Status += " (paused)"
	}
	return m
}
