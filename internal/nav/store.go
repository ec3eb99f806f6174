package nav

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/telemart/storefront-gateway/pkg/logger"
	"github.com/telemart/storefront-gateway/pkg/redis"
)

// SessionStore is the slice of the redis client the navigation store uses.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	HistoryKey(userID int64) string
}

// BackResult tells the webview where a logical back navigation lands. When
// Native is set the stack is already at its root and the client should defer
// to the platform's own back affordance (leaving the app, if at the root).
type BackResult struct {
	URL    string `json:"url,omitempty"`
	Native bool   `json:"native"`
}

// Store keeps one ordered list of visited URLs per user, mirrored to Redis
// on every change so a webview reload within the same session does not lose
// back-navigation. Visit is the sole writer of new entries; Back and Reset
// only shrink or collapse the list.
type Store struct {
	sessions SessionStore
	ttl      time.Duration
	logg     *logger.Logger

	// Serializes read-modify-write cycles per user. Striped by user id so
	// the lock set stays bounded over the process lifetime.
	locks [64]sync.Mutex
}

const defaultSessionTTL = 12 * time.Hour

// NewStore builds a navigation store persisting through the given session
// backend. Non-positive ttl falls back to the default.
func NewStore(sessions SessionStore, ttl time.Duration, logg *logger.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Store{sessions: sessions, ttl: ttl, logg: logg}
}

// Visit appends the resolved URL to the user's history, unless it matches
// the current last entry. Recording resolved URLs rather than requested ones
// keeps the list honest when a navigation gets redirected.
func (s *Store) Visit(ctx context.Context, userID int64, url string) ([]string, error) {
	if url == "" {
		return s.History(ctx, userID)
	}

	unlock := s.lock(userID)
	defer unlock()

	history := s.load(ctx, userID)
	if len(history) == 0 || history[len(history)-1] != url {
		history = append(history, url)
		s.persist(ctx, userID, history)
	}
	return history, nil
}

// Back pops the current entry and returns the one below it. With fewer than
// two entries the stack stays as-is and the result signals native back.
func (s *Store) Back(ctx context.Context, userID int64) (BackResult, error) {
	unlock := s.lock(userID)
	defer unlock()

	history := s.load(ctx, userID)
	if len(history) < 2 {
		return BackResult{Native: true}, nil
	}

	history = history[:len(history)-1]
	s.persist(ctx, userID, history)
	return BackResult{URL: history[len(history)-1]}, nil
}

// Reset collapses the history to a single entry equal to the given URL. Used
// after checkout so back cannot re-enter the completed order flow.
func (s *Store) Reset(ctx context.Context, userID int64, current string) error {
	unlock := s.lock(userID)
	defer unlock()

	history := []string{current}
	if current == "" {
		history = nil
	}
	s.persist(ctx, userID, history)
	return nil
}

// History returns the user's visited URLs in order, oldest first.
func (s *Store) History(ctx context.Context, userID int64) ([]string, error) {
	unlock := s.lock(userID)
	defer unlock()
	return s.load(ctx, userID), nil
}

// CanGoBack reports whether a logical back target exists.
func (s *Store) CanGoBack(ctx context.Context, userID int64) (bool, error) {
	unlock := s.lock(userID)
	defer unlock()
	return len(s.load(ctx, userID)) >= 2, nil
}

func (s *Store) lock(userID int64) func() {
	mu := &s.locks[uint64(userID)%uint64(len(s.locks))]
	mu.Lock()
	return mu.Unlock
}

// load rehydrates the history blob. Missing keys and corrupt blobs both fall
// back to an empty list; navigation must never fail a request.
func (s *Store) load(ctx context.Context, userID int64) []string {
	raw, err := s.sessions.Get(ctx, s.sessions.HistoryKey(userID))
	if err != nil {
		if !redis.Nil(err) && s.logg != nil {
			s.logg.Warn(ctx, "nav history read failed: "+err.Error())
		}
		return nil
	}

	var history []string
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "nav history blob corrupt, starting fresh")
		}
		return nil
	}
	return history
}

func (s *Store) persist(ctx context.Context, userID int64, history []string) {
	key := s.sessions.HistoryKey(userID)

	if len(history) == 0 {
		if err := s.sessions.Del(ctx, key); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "nav history delete failed: "+err.Error())
		}
		return
	}

	blob, err := json.Marshal(history)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "nav history encode failed: "+err.Error())
		}
		return
	}
	if err := s.sessions.Set(ctx, key, string(blob), s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "nav history write failed: "+err.Error())
	}
}
