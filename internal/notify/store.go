package notify

import (
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

const (
	// DefaultTTL is how long a toast stays visible without dismissal.
	DefaultTTL = 4 * time.Second
	// DefaultCap keeps only the most recent toasts on screen.
	DefaultCap = 3
)

// Notification is one ephemeral user-facing toast.
type Notification struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Kind    Kind   `json:"type"`

	expiresAt time.Time
}

// Store queues and auto-expires short-lived messages for one user. Entries
// are FIFO by insertion and capped to the most recent few.
type Store struct {
	mu     sync.Mutex
	ttl    time.Duration
	cap    int
	lastID int64
	queue  []Notification
	now    func() time.Time
}

// NewStore builds a toast queue. Non-positive ttl/cap fall back to defaults.
func NewStore(ttl time.Duration, capacity int) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Store{
		ttl: ttl,
		cap: capacity,
		now: time.Now,
	}
}

// Notify queues a message. IDs are monotonic timestamps; when the clock does
// not advance between calls the ID is bumped so ordering stays strict.
func (s *Store) Notify(message string, kind Kind) Notification {
	if kind == "" {
		kind = KindInfo
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	entry := Notification{
		ID:        id,
		Message:   message,
		Kind:      kind,
		expiresAt: now.Add(s.ttl),
	}
	s.queue = append(s.queue, entry)
	if excess := len(s.queue) - s.cap; excess > 0 {
		s.queue = append([]Notification(nil), s.queue[excess:]...)
	}
	return entry
}

// Dismiss removes a toast before its timeout.
func (s *Store) Dismiss(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.queue[:0]
	for _, entry := range s.queue {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	s.queue = kept
}

// Active returns the not-yet-expired toasts in insertion order, purging
// expired entries as a side effect.
func (s *Store) Active() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.queue[:0]
	for _, entry := range s.queue {
		if entry.expiresAt.After(now) {
			kept = append(kept, entry)
		}
	}
	s.queue = kept

	out := make([]Notification, len(s.queue))
	copy(out, s.queue)
	return out
}
