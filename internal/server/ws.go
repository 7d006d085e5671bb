package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateFeed pushes session states to websocket clients as JSON. A client receives
// the current state on connect; intermediate states may be skipped when it falls
// behind.
type StateFeed struct {
	session Session
	total   int
	log     *slog.Logger
}

// NewStateFeed creates a StateFeed.
func NewStateFeed(s Session, totalGestures int, log *slog.Logger) *StateFeed {
	return &StateFeed{session: s, total: totalGestures, log: log}
}

// ServeHTTP handles WebSocket upgrade requests.
func (f *StateFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	states, unsubscribe := f.session.Subscribe()
	defer unsubscribe()

	// The read loop handles pongs and notices the client going away.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			if err := f.write(conn, NewStateView(s, f.total)); err != nil {
				f.log.Debug("websocket write failed", "error", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *StateFeed) write(conn *websocket.Conn, v StateView) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
