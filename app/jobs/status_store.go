package jobs

import (
	"sync"
	"time"

	"github.com/dotunfolarin/pressflow/app/site"
)

const recentStatusLimit = 100

type StatusUpdate struct {
	JobID  string               `json:"jobId"`
	Site   string               `json:"site"`
	Class  site.AutomationClass `json:"class"`
	State  State                `json:"state"`
	Detail string               `json:"detail,omitempty"`
	At     time.Time            `json:"at"`
}

// StatusStore fans job state changes out to subscribers and keeps a bounded
// window of recent updates for the API to serve.
type StatusStore struct {
	mu          sync.RWMutex
	subscribers map[int]func(StatusUpdate)
	nextID      int
	recent      []StatusUpdate
}

func NewStatusStore() *StatusStore {
	return &StatusStore{
		subscribers: make(map[int]func(StatusUpdate)),
	}
}

func (s *StatusStore) Publish(update StatusUpdate) {
	if update.At.IsZero() {
		update.At = time.Now().UTC()
	}

	s.mu.Lock()
	s.recent = append(s.recent, update)
	if len(s.recent) > recentStatusLimit {
		s.recent = s.recent[len(s.recent)-recentStatusLimit:]
	}

	handlers := make([]func(StatusUpdate), 0, len(s.subscribers))
	for _, handler := range s.subscribers {
		handlers = append(handlers, handler)
	}
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(update)
	}
}

// Subscribe registers a handler for future updates and returns an
// unsubscribe function. Handlers are called synchronously from Publish.
func (s *StatusStore) Subscribe(handler func(StatusUpdate)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = handler
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *StatusStore) Recent() []StatusUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	updates := make([]StatusUpdate, len(s.recent))
	copy(updates, s.recent)

	return updates
}
