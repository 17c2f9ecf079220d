package api

import (
	"context"
	"errors"
	"fmt"
	"quantdash/internal/app"
	"quantdash/internal/logger"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultSessionIdleTTL = 10 * time.Minute

var errSessionNotFound = errors.New("session not found")

type registeredSession struct {
	session  *app.Session
	lastSeen time.Time
	// open streams keep a session alive however long they stay quiet
	streams int
}

// SessionRegistry is the only state shared across requests; everything
// inside a session is serialized by the session's own loop.
//
// A browser that goes away without deleting its session would otherwise
// keep the session's refresh timers running forever, so sessions nobody
// has touched for idleTTL are closed by the reaper.
type SessionRegistry struct {
	clock   clockwork.Clock
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*registeredSession
	stop     chan struct{}
	done     chan struct{}
}

func NewSessionRegistry(clock clockwork.Clock, idleTTL time.Duration) *SessionRegistry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	return &SessionRegistry{
		clock:    clock,
		idleTTL:  idleTTL,
		sessions: map[string]*registeredSession{},
	}
}

func (r *SessionRegistry) Add(s *app.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &registeredSession{
		session:  s,
		lastSeen: r.clock.Now(),
	}
}

// Get counts as activity on the session.
func (r *SessionRegistry) Get(id string) (*app.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	entry.lastSeen = r.clock.Now()
	return entry.session, nil
}

// Acquire pins the session for a stream. It is not reaped until release
// is called; release also counts as activity.
func (r *SessionRegistry) Acquire(id string) (*app.Session, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	entry.streams++
	entry.lastSeen = r.clock.Now()

	once := sync.Once{}
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			entry.streams--
			entry.lastSeen = r.clock.Now()
		})
	}
	return entry.session, release, nil
}

// Remove closes the session. Unknown ids are an error.
func (r *SessionRegistry) Remove(id string) error {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	entry.session.Close()
	return nil
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap closes every session idle for longer than idleTTL.
func (r *SessionRegistry) Reap(ctx context.Context) {
	now := r.clock.Now()
	idle := []*app.Session{}

	r.mu.Lock()
	for id, entry := range r.sessions {
		if entry.streams > 0 || now.Sub(entry.lastSeen) < r.idleTTL {
			continue
		}
		idle = append(idle, entry.session)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range idle {
		logger.FromContext(ctx).Infow("reaping idle session", "sessionID", s.ID, "idleTTL", r.idleTTL.String())
		s.Close()
	}
}

// StartReaper sweeps for idle sessions on a ticker until CloseAll.
// Calling it again while running does nothing.
func (r *SessionRegistry) StartReaper(ctx context.Context) {
	r.mu.Lock()
	if r.stop != nil {
		r.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	r.stop = stop
	r.done = done
	r.mu.Unlock()

	interval := r.idleTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := r.clock.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				r.Reap(ctx)
			}
		}
	}()
}

func (r *SessionRegistry) stopReaper() {
	r.mu.Lock()
	stop, done := r.stop, r.done
	r.stop, r.done = nil, nil
	r.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (r *SessionRegistry) CloseAll() {
	r.stopReaper()

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*registeredSession{}
	r.mu.Unlock()

	for _, entry := range sessions {
		entry.session.Close()
	}
}
