package core

import (
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat entry. List order is authoritative; Timestamp is
// informational only.
type Message struct {
	ID        int       `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"` // markdown for assistant messages
	Timestamp time.Time `json:"timestamp"`
}

// MessageStore is an ordered, append-only list of messages with a single
// in-place replace used to resolve placeholders.
type MessageStore struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time
}

func NewMessageStore() *MessageStore {
	return &MessageStore{now: time.Now}
}

// Append adds a message at the end and returns its id, one more than the
// current maximum (1 for an empty store).
func (s *MessageStore) Append(role Role, content string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for _, m := range s.messages {
		if m.ID >= next {
			next = m.ID + 1
		}
	}
	s.messages = append(s.messages, Message{
		ID:        next,
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
	return next
}

// Replace swaps the content of message id, keeping its position, role and
// timestamp. It reports false when no message has that id.
func (s *MessageStore) Replace(id int, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content = content
			return true
		}
	}
	return false
}

// List returns a copy of the messages in order.
func (s *MessageStore) List() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
