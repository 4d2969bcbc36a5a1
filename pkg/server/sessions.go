package server

import (
	"context"
	"sync"
	"time"

	"github.com/matst80/rdf-finder/pkg/session"
	"github.com/matst80/rdf-finder/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "finder_active_sessions",
	Help: "Browser sessions with a running controller",
})

// ControllerFactory builds the controller of a new session from its store.
type ControllerFactory func(sessionId string, store *state.Store) (*session.Controller, error)

type sessionEntry struct {
	controller *session.Controller
	cancel     context.CancelFunc
	done       chan struct{}
	lastUsed   time.Time
}

// Sessions runs one controller per browser session and stops the ones left
// idle for longer than the ttl.
type Sessions struct {
	mu        sync.Mutex
	entries   map[string]*sessionEntry
	factory   ControllerFactory
	ttl       time.Duration
	logger    *zap.Logger
	storeOpts []state.Option
	now       func() time.Time
}

func NewSessions(factory ControllerFactory, ttl time.Duration, logger *zap.Logger, storeOpts ...state.Option) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		entries:   map[string]*sessionEntry{},
		factory:   factory,
		ttl:       ttl,
		logger:    logger,
		storeOpts: append([]state.Option{state.WithLogger(logger)}, storeOpts...),
		now:       time.Now,
	}
}

// Get returns the session's controller, starting one restored from hash when
// the session is new. The hash of an existing session is ignored.
func (s *Sessions) Get(sessionId, hash string) (*session.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sessionId]; ok {
		e.lastUsed = s.now()
		return e.controller, nil
	}

	store, err := state.NewStoreFromHash(hash, s.storeOpts...)
	if err != nil {
		s.logger.Warn("ignoring malformed hash", zap.String("hash", hash), zap.Error(err))
	}
	ctrl, err := s.factory(sessionId, store)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &sessionEntry{controller: ctrl, cancel: cancel, done: make(chan struct{}), lastUsed: s.now()}
	go func() {
		defer close(e.done)
		if err := ctrl.Run(ctx); err != nil {
			s.logger.Error("session stopped", zap.String("session", sessionId), zap.Error(err))
		}
	}()
	s.entries[sessionId] = e
	activeSessions.Inc()
	s.logger.Debug("session started", zap.String("session", sessionId))
	return ctrl, nil
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Evict stops every session idle for longer than the ttl and returns how many
// were stopped.
func (s *Sessions) Evict() int {
	s.mu.Lock()
	expired := make([]*sessionEntry, 0)
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.entries {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, e)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()
	for _, e := range expired {
		e.cancel()
		<-e.done
		activeSessions.Dec()
	}
	return len(expired)
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				s.logger.Info("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Close stops every session, it is meant as a shutdown hook.
func (s *Sessions) Close(ctx context.Context) error {
	s.mu.Lock()
	entries := s.entries
	s.entries = map[string]*sessionEntry{}
	s.mu.Unlock()
	for _, e := range entries {
		e.cancel()
	}
	for _, e := range entries {
		select {
		case <-e.done:
			activeSessions.Dec()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
