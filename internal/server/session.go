package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ayusman/landmarkscollector/internal/session"
)

type sessionHandler struct {
	session Session
	total   int
	log     *slog.Logger
}

func newSessionHandler(s Session, total int, log *slog.Logger) *sessionHandler {
	return &sessionHandler{session: s, total: total, log: log}
}

// getState handles GET /api/state.
func (h *sessionHandler) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewStateView(h.session.State(), h.total))
}

// setDirectory handles POST /api/session/directory.
// Body: { "directory": "/home/me/captures" }.
func (h *sessionHandler) setDirectory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Directory string `json:"directory"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.Debug("invalid directory body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.dispatch(w, session.DirectoryChosen{Directory: body.Directory})
}

// setGesture handles POST /api/session/gesture.
// Body: { "name": "good morning" }.
func (h *sessionHandler) setGesture(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.log.Debug("invalid gesture body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.dispatch(w, session.GestureNameChanged{Gesture: body.Name})
}

// send returns a handler that dispatches a fixed event.
func (h *sessionHandler) send(e session.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.dispatch(w, e)
	}
}

// dispatch queues e and answers 202. The resulting state arrives on the event feed;
// events the current phase does not accept are dropped by the session.
func (h *sessionHandler) dispatch(w http.ResponseWriter, e session.Event) {
	if !h.session.Dispatch(e) {
		writeError(w, http.StatusServiceUnavailable, "session stopped")
		return
	}
	h.log.Debug("event dispatched", "event", e.Name())
	writeJSON(w, http.StatusAccepted, map[string]string{"event": e.Name()})
}

func parsePositive(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}
