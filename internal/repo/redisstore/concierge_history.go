package redisstore

import (
	"context"
	"encoding/json"

	"github.com/geocoder89/rfphub/internal/concierge"
	"github.com/geocoder89/rfphub/internal/queue/redisclient"
)

// ConciergeHistory stores each user's transcript as a capped Redis list with
// a sliding expiry.
type ConciergeHistory struct {
	client *redisclient.Client
}

func NewConciergeHistory(client *redisclient.Client) *ConciergeHistory {
	return &ConciergeHistory{client: client}
}

func (h *ConciergeHistory) Append(ctx context.Context, userID string, m concierge.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}

	key := concierge.HistoryKey(userID)
	rdb := h.client.Raw()

	pipe := rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -concierge.MaxHistory, -1)
	pipe.Expire(ctx, key, concierge.HistoryTTL)

	_, err = pipe.Exec(ctx)
	return err
}

func (h *ConciergeHistory) List(ctx context.Context, userID string) ([]concierge.Message, error) {
	raw, err := h.client.Raw().LRange(ctx, concierge.HistoryKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]concierge.Message, 0, len(raw))
	for _, s := range raw {
		var m concierge.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (h *ConciergeHistory) Clear(ctx context.Context, userID string) error {
	return h.client.Raw().Del(ctx, concierge.HistoryKey(userID)).Err()
}
