package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/rfphub/internal/concierge"
)

type historyEntry struct {
	messages  []concierge.Message
	touchedAt time.Time
}

// ConciergeHistory is the in-process transcript store used when Redis is not
// configured. Entries idle for longer than ttl are dropped on access.
type ConciergeHistory struct {
	mu    sync.RWMutex
	items map[string]historyEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewConciergeHistory() *ConciergeHistory {
	return &ConciergeHistory{
		items: make(map[string]historyEntry),
		ttl:   concierge.HistoryTTL,
		now:   time.Now,
	}
}

func (r *ConciergeHistory) Append(_ context.Context, userID string, m concierge.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.items[userID]
	if r.expired(e) {
		e = historyEntry{}
	}

	e.messages = append(e.messages, m)
	if len(e.messages) > concierge.MaxHistory {
		e.messages = append([]concierge.Message(nil), e.messages[len(e.messages)-concierge.MaxHistory:]...)
	}
	e.touchedAt = r.now()

	r.items[userID] = e
	return nil
}

func (r *ConciergeHistory) List(_ context.Context, userID string) ([]concierge.Message, error) {
	r.mu.RLock()
	e, ok := r.items[userID]
	r.mu.RUnlock()

	if !ok || r.expired(e) {
		return []concierge.Message{}, nil
	}

	out := make([]concierge.Message, len(e.messages))
	copy(out, e.messages)
	return out, nil
}

func (r *ConciergeHistory) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	delete(r.items, userID)
	r.mu.Unlock()
	return nil
}

func (r *ConciergeHistory) expired(e historyEntry) bool {
	return !e.touchedAt.IsZero() && r.now().Sub(e.touchedAt) > r.ttl
}
