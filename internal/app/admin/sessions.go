package admin

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions keeps one Controller per browser session.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  func() *Controller
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type session struct {
	controller *Controller
	lastSeen   time.Time
}

// NewSessions creates a registry. Sessions idle for longer than ttl are
// dropped; a zero ttl keeps them forever.
func NewSessions(factory func() *Controller, ttl time.Duration, logger *slog.Logger) *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Get returns the controller for id, creating a session with a fresh id
// when id is unknown. The returned id is the one the caller must use from
// now on.
func (s *Sessions) Get(id string) (*Controller, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if sess, ok := s.sessions[id]; ok {
		sess.lastSeen = now
		return sess.controller, id
	}

	id = uuid.NewString()
	sess := &session{controller: s.factory(), lastSeen: now}
	s.sessions[id] = sess

	s.logger.Info("Admin session created",
		slog.String("session_id", id),
		slog.Int("active_sessions", len(s.sessions)),
	)
	return sess.controller, id
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) sweep(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			s.logger.Debug("Admin session expired", slog.String("session_id", id))
		}
	}
}
