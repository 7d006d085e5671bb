// Package emitter publishes session activity to an MQTT broker.
package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ayusman/landmarkscollector/internal/session"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// ErrNotConnected is returned by Publish before Connect succeeds or while the
// broker connection is down.
var ErrNotConnected = errors.New("mqtt not connected")

// Config selects the broker and topic prefix.
type Config struct {
	Broker   string // host:port
	ClientID string
	Topic    string // prefix; messages go to {Topic}/phase and {Topic}/capture
	QoS      byte
}

// Message is the JSON payload of every publish.
type Message struct {
	Phase        string    `json:"phase"`
	GestureName  string    `json:"gesture_name,omitempty"`
	GestureIndex int       `json:"gesture_index,omitempty"`
	File         string    `json:"file,omitempty"`
	Status       string    `json:"status,omitempty"`
	Time         time.Time `json:"time"`
}

type update struct {
	subtopic string
	msg      Message
}

// Emitter mirrors session transitions to MQTT.
type Emitter struct {
	cfg    Config
	log    *slog.Logger
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
	published map[string]uint64
	errors    uint64
}

// New creates an Emitter. Call Connect before Run.
func New(cfg Config, log *slog.Logger) *Emitter {
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{cfg: cfg, log: log, published: make(map[string]uint64)}
}

// Connect dials the broker. The client reconnects on its own after a lost
// connection.
func (e *Emitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", e.cfg.Broker))
	opts.SetClientID(e.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		e.setConnected(true)
		e.log.Info("mqtt connection established", "broker", e.cfg.Broker, "client_id", e.cfg.ClientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.setConnected(false)
		e.log.Warn("mqtt connection lost", "broker", e.cfg.Broker, "error", err)
	}

	e.client = mqtt.NewClient(opts)
	e.log.Info("connecting to mqtt broker", "broker", e.cfg.Broker)

	token := e.client.Connect()
	select {
	case <-token.Done():
	case <-time.After(connectTimeout):
		return fmt.Errorf("mqtt connection timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	e.setConnected(true)
	return nil
}

// Run publishes an update for every phase change read from states until ctx is
// done or states is closed.
func (e *Emitter) Run(ctx context.Context, states <-chan session.State) {
	var prev session.State
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			for _, u := range changes(prev, s, time.Now()) {
				if err := e.Publish(u.subtopic, u.msg); err != nil {
					e.log.Warn("mqtt publish failed", "topic", u.subtopic, "error", err)
				}
			}
			prev = s
		}
	}
}

// Publish sends msg to {Topic}/{subtopic}.
func (e *Emitter) Publish(subtopic string, msg Message) error {
	if !e.isConnected() {
		e.countError()
		return ErrNotConnected
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		e.countError()
		return fmt.Errorf("marshal message: %w", err)
	}

	topic := e.cfg.Topic + "/" + subtopic
	token := e.client.Publish(topic, e.cfg.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()

	e.log.Debug("mqtt message published", "topic", topic, "size", len(payload))
	return nil
}

// Disconnect closes the broker connection.
func (e *Emitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
		e.log.Info("mqtt disconnected")
	}
	e.setConnected(false)
}

// Stats contains emitter counters.
type Stats struct {
	Connected bool
	Published map[string]uint64
	Errors    uint64
}

// Stats returns a copy of the emitter counters.
func (e *Emitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{Connected: e.connected, Published: published, Errors: e.errors}
}

func (e *Emitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *Emitter) isConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *Emitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}

// changes lists the messages for the transition prev -> cur. A phase change yields a
// "phase" message. A status that newly reports a saved file yields a "capture"; it is
// keyed on the status because subscribers may never observe SavingMotion itself.
func changes(prev, cur session.State, now time.Time) []update {
	if cur == nil {
		return nil
	}
	st := session.SettingsOf(cur)

	var out []update
	if prev == nil || prev.Phase() != cur.Phase() {
		out = append(out, update{
			subtopic: "phase",
			msg: Message{
				Phase:        cur.Phase(),
				GestureName:  st.GestureName,
				GestureIndex: session.GestureIndexOf(cur),
				Status:       st.Status,
				Time:         now,
			},
		})
	}

	file, ok := strings.CutPrefix(st.Status, "saved ")
	if ok && (prev == nil || session.SettingsOf(prev).Status != st.Status) {
		msg := Message{Phase: cur.Phase(), GestureName: st.GestureName, File: file, Time: now}
		if i := strings.LastIndexByte(file, '_'); i >= 0 {
			msg.GestureIndex, _ = strconv.Atoi(file[i+1:])
		}
		out = append(out, update{subtopic: "capture", msg: msg})
	}
	return out
}
