package httpapi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mural-budget/internal/estimate"
)

var ErrTooManySessions = errors.New("too many open form sessions")

type sessionEntry struct {
	calc     *estimate.Calculator
	lastSeen time.Time
}

// SessionRegistry holds the live form sessions of the website, one
// debounced calculator per open form.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
	delay    time.Duration
	idleTTL  time.Duration
	max      int
	opts     []estimate.TrackerOption
	now      func() time.Time
}

// NewSessionRegistry builds a registry holding at most maxSessions live
// sessions.
func NewSessionRegistry(delay, idleTTL time.Duration, maxSessions int, opts ...estimate.TrackerOption) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[uuid.UUID]*sessionEntry),
		delay:    delay,
		idleTTL:  idleTTL,
		max:      maxSessions,
		opts:     opts,
		now:      time.Now,
	}
}

// Create opens a session. When the registry is full it first drops expired
// sessions and returns ErrTooManySessions if none were.
func (r *SessionRegistry) Create() (uuid.UUID, *estimate.Calculator, error) {
	if r.Len() >= r.max && r.Sweep() == 0 {
		return uuid.Nil, nil, ErrTooManySessions
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.max {
		return uuid.Nil, nil, ErrTooManySessions
	}

	id := uuid.New()
	calc := estimate.NewCalculator(r.delay, r.opts...)
	r.sessions[id] = &sessionEntry{calc: calc, lastSeen: r.now()}
	return id, calc, nil
}

// Get returns the session calculator and marks the session as active.
func (r *SessionRegistry) Get(id uuid.UUID) (*estimate.Calculator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.calc, true
}

func (r *SessionRegistry) Delete(id uuid.UUID) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		e.calc.Close()
	}
	return ok
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *SessionRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*sessionEntry
	for id, e := range r.sessions {
		last := e.lastSeen
		if u := e.calc.LastUpdate(); u.After(last) {
			last = u
		}
		if now.Sub(last) > r.idleTTL {
			expired = append(expired, e)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, e := range expired {
		e.calc.Close()
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done, then closes
// all remaining sessions.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Debug("Expired idle form sessions",
					zap.Int("expired", n),
					zap.Int("active", r.Len()))
			}
		}
	}
}

func (r *SessionRegistry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*sessionEntry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.calc.Close()
	}
}
