package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-chi-calculator/internal/calculator"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStoreFull       = errors.New("session limit reached")
)

// Session is one calculator owned by a client.
type Session struct {
	ID        string
	State     calculator.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoreConfig bounds the store. A zero MaxSessions means unlimited and a
// zero TTL disables eviction.
type StoreConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

// Store keeps sessions in memory. Each session's events are applied under
// the store lock, so presses on one session are serialised.
type Store struct {
	cfg    StoreConfig
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	now   func() time.Time
	newID func() string
}

func NewStore(cfg StoreConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*Session),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create starts a session at the initial calculator state.
func (s *Store) Create() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		return Session{}, ErrStoreFull
	}

	now := s.now()
	sess := &Session{
		ID:        s.newID(),
		State:     calculator.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess

	return *sess, nil
}

func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

// Apply feeds events to the session in order and returns the result.
func (s *Store) Apply(id string, events ...calculator.Event) (Session, error) {
	return s.Update(id, func(st calculator.State) calculator.State {
		return calculator.ApplyAll(st, events...)
	})
}

// Update replaces the session's state with fn's result. fn runs under the
// store lock and must not call back into the store.
func (s *Store) Update(id string, fn func(calculator.State) calculator.State) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	sess.State = fn(sess.State)
	sess.UpdatedAt = s.now()

	return *sess, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle since before now-TTL and returns how many
// were removed. Evictions are subtracted from the open-sessions counter.
func (s *Store) Sweep(ctx context.Context, now time.Time) int {
	if s.cfg.TTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.cfg.TTL)

	s.mu.Lock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	s.mu.Unlock()

	if evicted > 0 && sessionsCounter != nil {
		sessionsCounter.Add(ctx, -int64(evicted))
	}
	return evicted
}

// Run sweeps every SweepInterval until ctx is done.
func (s *Store) Run(ctx context.Context) {
	if s.cfg.TTL <= 0 || s.cfg.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx, s.now()); n > 0 {
				s.logger.Info("idle sessions evicted",
					zap.Int("evicted", n),
					zap.Int("remaining", s.Len()),
				)
			}
		}
	}
}

// ActiveGauge exposes the session count to Prometheus.
func (s *Store) ActiveGauge() prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "calculator",
		Name:      "sessions_active",
		Help:      "Number of calculator sessions held in memory.",
	}, func() float64 {
		return float64(s.Len())
	})
}
