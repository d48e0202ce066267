package concierge

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/rfphub/internal/cache"
	"github.com/geocoder89/rfphub/internal/utils"
	"github.com/google/uuid"
)

var ErrEmptyMessage = errors.New("message must not be empty")

type Service struct {
	history   HistoryStore
	templates *cache.Cache
	now       func() time.Time
}

func NewService(history HistoryStore, templates *cache.Cache) *Service {
	if templates == nil {
		templates = cache.New(10 * time.Minute)
	}
	return &Service{history: history, templates: templates, now: func() time.Time { return time.Now().UTC() }}
}

// Chat answers message and appends the exchange to the user's transcript.
// A failing history store is logged and does not fail the chat.
func (s *Service) Chat(ctx context.Context, userID, role, message string, chatCtx map[string]any) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}

	now := s.now()
	reply := Respond(message, role, now)

	m := Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		RFPID:     rfpIDFrom(chatCtx),
		Message:   message,
		Response:  reply.Content,
		Intent:    ClassifyIntent(message),
		CreatedAt: now,
	}

	if err := s.history.Append(ctx, userID, m); err != nil {
		slog.Default().WarnContext(ctx, "concierge.history_append_failed", "user_id", userID, "err", err)
	}

	return reply, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]Message, error) {
	return s.history.List(ctx, userID)
}

func (s *Service) ClearHistory(ctx context.Context, userID string) error {
	return s.history.Clear(ctx, userID)
}

// Template serves RFP templates through the in-process cache.
func (s *Service) Template(category string) Template {
	key := utils.BuildTemplateCacheKey(category)

	if v, ok := s.templates.Get(key); ok {
		if t, ok := v.(Template); ok {
			return t
		}
	}

	t := TemplateFor(category)
	s.templates.Set(key, t)
	return t
}

func (s *Service) AnalyzeOffer(req AnalyzeOfferRequest) OfferAnalysis {
	return AnalyzeOffer(req)
}

func (s *Service) Suggestions(role string) []string {
	return RoleSuggestions(role)
}

func rfpIDFrom(chatCtx map[string]any) *string {
	if chatCtx == nil {
		return nil
	}
	v, ok := chatCtx["rfp_id"].(string)
	if !ok || !utils.IsUUID(v) {
		return nil
	}
	return &v
}
