package core

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one open chat page.
type Session struct {
	ID            string
	Controller    *Controller
	Notifications *NotificationQueue
	CreatedAt     time.Time

	lastSeen  time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// Done is closed once the session has been deleted or evicted.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// SessionService keeps a controller per open page.
type SessionService struct {
	api     API
	journal Journal
	opts    Options

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewSessionService(api API, journal Journal, opts Options) *SessionService {
	return &SessionService{
		api:      api,
		journal:  journal,
		opts:     opts,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create opens a session and loads the current document list into it. A
// failed initial load is notified on the session, not returned.
func (s *SessionService) Create(ctx context.Context) *Session {
	id := uuid.NewString()
	queue := NewNotificationQueue(0)
	now := s.now()
	sess := &Session{
		ID:            id,
		Controller:    NewController(id, s.api, queue, s.journal, s.opts),
		Notifications: queue,
		CreatedAt:     now,
		lastSeen:      now,
		done:          make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	if err := sess.Controller.Refresh(ctx); err != nil {
		log.Printf("Session %s: initial document load failed: %v", id, err)
	}
	log.Printf("Created chat session %s", id)
	return sess
}

func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess, nil
}

func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	sess.close()
	log.Printf("Closed chat session %s", id)
	return nil
}

// Sweep drops sessions not seen for longer than maxIdle. Sessions with an
// action in flight or an open websocket are kept.
func (s *SessionService) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	evicted := 0
	for id, sess := range s.sessions {
		if !sess.lastSeen.Before(cutoff) {
			continue
		}
		if sess.Controller.IsLoading() || sess.Controller.HasSubscribers() {
			continue
		}
		delete(s.sessions, id)
		sess.close()
		evicted++
	}
	if evicted > 0 {
		log.Printf("Evicted %d idle chat sessions", evicted)
	}
	return evicted
}

func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
