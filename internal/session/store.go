package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayusman/landmarkscollector/internal/platform/metrics"
)

// inboxSize bounds the number of queued events before Dispatch blocks.
const inboxSize = 256

// Executor runs the commands the reducer emits.
type Executor interface {
	Execute(ctx context.Context, cmd Command, dispatch func(Event))
}

// Store owns the session state. All events pass through a single inbox and are
// reduced on one goroutine, so transitions are atomic with respect to each other.
type Store struct {
	reducer  *Reducer
	executor Executor
	log      *slog.Logger
	metrics  *metrics.Metrics

	inbox chan Event
	done  chan struct{}
	once  sync.Once

	mu      sync.RWMutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// NewStore creates a Store in the reducer's initial state. metrics may be nil.
func NewStore(reducer *Reducer, executor Executor, log *slog.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		reducer:  reducer,
		executor: executor,
		log:      log,
		metrics:  m,
		inbox:    make(chan Event, inboxSize),
		done:     make(chan struct{}),
		state:    reducer.Initial(),
		subs:     make(map[int]chan State),
	}
}

// Dispatch queues e. It blocks while the inbox is full and reports false once the
// store has stopped.
func (s *Store) Dispatch(e Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.inbox <- e:
		return true
	case <-s.done:
		return false
	}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe returns a channel that always holds the latest state after each
// transition. Slow subscribers only miss intermediate states. Call cancel to
// unsubscribe.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	ch <- s.state
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Run processes events until ctx is done, then waits for running commands when the
// executor supports it.
func (s *Store) Run(ctx context.Context) error {
	s.metrics.SetPhase(s.State().Phase())
	s.log.Info("session store started", "phase", s.State().Phase())

	for {
		select {
		case <-ctx.Done():
			s.once.Do(func() { close(s.done) })
			if w, ok := s.executor.(interface{ Wait() }); ok {
				w.Wait()
			}
			s.log.Info("session store stopped", "phase", s.State().Phase())
			return nil
		case e := <-s.inbox:
			s.handle(ctx, e)
		}
	}
}

func (s *Store) handle(ctx context.Context, e Event) {
	prev := s.State()
	next, cmds := s.reducer.Reduce(prev, e)
	s.metrics.IncEvent(e.Name())

	if d, ok := e.(DetectorFailed); ok {
		s.log.Warn("landmark source failed", "source", d.Source, "error", d.Message)
	}
	if f, ok := e.(SaveFailed); ok && next.Phase() != prev.Phase() {
		s.log.Error("capture export failed", "gesture_index", GestureIndexOf(prev), "error", f.Message)
	}
	if next.Phase() != prev.Phase() {
		s.log.Info("session phase changed",
			"from", prev.Phase(),
			"to", next.Phase(),
			"event", e.Name(),
			"gesture_index", GestureIndexOf(next),
		)
		s.metrics.SetPhase(next.Phase())
	}

	s.mu.Lock()
	s.state = next
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
	s.mu.Unlock()

	for _, cmd := range cmds {
		s.executor.Execute(ctx, cmd, s.dispatchFromCommand)
	}
}

func (s *Store) dispatchFromCommand(e Event) {
	s.Dispatch(e)
}
