package state

import (
	"sync"

	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finder_state_transitions_total",
		Help: "Query state transitions by origin",
	}, []string{"source"})
)

type Source int

const (
	// SourceSet is a programmatic Set call.
	SourceSet Source = iota
	// SourceHash is a hash change not caused by Set: navigation, back or forward.
	SourceHash
	// SourceReplace corrects the current entry in place.
	SourceReplace
)

func (s Source) String() string {
	switch s {
	case SourceHash:
		return "hash"
	case SourceReplace:
		return "replace"
	}
	return "set"
}

type Change struct {
	Previous   types.QueryState
	Current    types.QueryState
	Hash       string
	Source     Source
	Generation uint64
}

func (c Change) DatasetChanged() bool {
	return c.Previous.DatasetId != c.Current.DatasetId
}

type ChangeHandler func(Change)

// Store is the single source of truth for the visible query. Every transition
// is recorded as a history entry and announced once to every subscriber.
// Transitions made while handlers run are queued and delivered after the
// current one, so every subscriber sees changes in generation order.
type Store struct {
	mu         sync.Mutex
	current    types.QueryState
	history    *History
	handlers   map[int]ChangeHandler
	order      []int
	nextId     int
	generation uint64
	logger     *zap.Logger
	pending    []pendingChange
	firing     bool
}

type pendingChange struct {
	change   Change
	handlers []ChangeHandler
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithHistoryLimit(limit int) Option {
	return func(s *Store) {
		s.history = NewHistory(limit)
	}
}

func NewStore(initial types.QueryState, opts ...Option) *Store {
	s := &Store{
		history:  NewHistory(DefaultHistoryLimit),
		handlers: map[int]ChangeHandler{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	initial.Sanitize()
	s.current = initial
	s.history.Push(Serialize(initial))
	return s
}

// NewStoreFromHash restores the state from a hash, a malformed hash yields
// the default state together with the parse error.
func NewStoreFromHash(hash string, opts ...Option) (*Store, error) {
	initial, err := Deserialize(hash)
	return NewStore(initial, opts...), err
}

func (s *Store) Get() types.QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) Hash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Current()
}

func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Store) History() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// OnChange subscribes handler and returns a function removing it again.
func (s *Store) OnChange(handler ChangeHandler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextId
	s.nextId++
	s.handlers[id] = handler
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Set merges patch into the current state and pushes a new history entry.
func (s *Store) Set(patch types.QueryPatch) {
	s.mu.Lock()
	next := s.current.Apply(patch)
	hash := Serialize(next)
	s.history.Push(hash)
	s.transition(next, hash, SourceSet)
	s.mu.Unlock()
	s.drain()
}

// Replace merges patch into the current state like Set but rewrites the
// current history entry instead of pushing one. It is meant for corrections
// of a state that should not stay reachable through Back.
func (s *Store) Replace(patch types.QueryPatch) {
	s.mu.Lock()
	next := s.current.Apply(patch)
	hash := Serialize(next)
	s.history.Replace(hash)
	s.transition(next, hash, SourceReplace)
	s.mu.Unlock()
	s.drain()
}

// Navigate applies an externally changed hash. Navigating to the current
// hash is not a transition.
func (s *Store) Navigate(hash string) error {
	next, err := Deserialize(hash)
	if err != nil {
		return err
	}
	canonical := Serialize(next)
	s.mu.Lock()
	if canonical == s.history.Current() {
		s.mu.Unlock()
		return nil
	}
	s.history.Push(canonical)
	s.transition(next, canonical, SourceHash)
	s.mu.Unlock()
	s.drain()
	return nil
}

func (s *Store) Back() bool {
	return s.move((*History).Back)
}

func (s *Store) Forward() bool {
	return s.move((*History).Forward)
}

func (s *Store) move(step func(*History) (string, bool)) bool {
	s.mu.Lock()
	hash, ok := step(s.history)
	if !ok {
		s.mu.Unlock()
		return false
	}
	// history entries are canonical
	next, err := Deserialize(hash)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("corrupt history entry", zap.String("hash", hash), zap.Error(err))
		return false
	}
	s.transition(next, hash, SourceHash)
	s.mu.Unlock()
	s.drain()
	return true
}

// transition queues the change, it must be called with the lock held.
func (s *Store) transition(next types.QueryState, hash string, source Source) {
	s.generation++
	change := Change{
		Previous:   s.current,
		Current:    next,
		Hash:       hash,
		Source:     source,
		Generation: s.generation,
	}
	s.current = next
	handlers := make([]ChangeHandler, 0, len(s.order))
	for _, id := range s.order {
		handlers = append(handlers, s.handlers[id])
	}
	s.pending = append(s.pending, pendingChange{change: change, handlers: handlers})
}

// drain delivers queued changes unless a delivery is already running further
// up the stack, in which case that one picks them up.
func (s *Store) drain() {
	s.mu.Lock()
	if s.firing {
		s.mu.Unlock()
		return
	}
	s.firing = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		s.fire(next.change, next.handlers)
		s.mu.Lock()
	}
	s.pending = nil
	s.firing = false
	s.mu.Unlock()
}

func (s *Store) fire(change Change, handlers []ChangeHandler) {
	transitions.WithLabelValues(change.Source.String()).Inc()
	s.logger.Debug("state changed",
		zap.String("hash", change.Hash),
		zap.Stringer("source", change.Source),
		zap.Uint64("generation", change.Generation))
	for _, h := range handlers {
		h(change)
	}
}
