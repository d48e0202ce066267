package notifications

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var ErrProviderDown = errors.New("provider down (simulated)")

// LogNotifier writes notifications to the log. NOTIFIER_SLEEP_MS and
// NOTIFIER_FAIL=1 simulate a slow or failing provider.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendOfferNotification(ctx context.Context, in OfferNotificationInput) (string, error) {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return "", ErrProviderDown
	}

	msgID := "log-" + uuid.NewString()

	n.logger.InfoContext(ctx, "notification.offer",
		"kind", in.Kind,
		"offer_id", in.OfferID,
		"rfp_id", in.RFPID,
		"rfp_title", in.RFPTitle,
		"recipient_id", in.RecipientID,
		"recipient_email", in.RecipientEmail,
		"price", in.Price,
		"message_id", msgID,
	)
	return msgID, nil
}
