package concierge

import (
	"context"
	"time"
)

const (
	MaxHistory = 10
	HistoryTTL = 24 * time.Hour
)

// Message is one stored exchange of the per-user transcript.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RFPID     *string   `json:"rfp_id,omitempty"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Intent    Intent    `json:"intent"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryStore keeps the last MaxHistory messages per user, oldest first.
type HistoryStore interface {
	Append(ctx context.Context, userID string, m Message) error
	List(ctx context.Context, userID string) ([]Message, error)
	Clear(ctx context.Context, userID string) error
}

func HistoryKey(userID string) string {
	return "concierge:history:" + userID
}
