package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type scriptedNotifier struct {
	calls int
	err   error
}

func (s *scriptedNotifier) SendOfferNotification(ctx context.Context, _ OfferNotificationInput) (string, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("expected a deadline on the send context")
	}
	if s.err != nil {
		return "", s.err
	}
	return "msg-1", nil
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &scriptedNotifier{err: errors.New("smtp down")}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})
	n.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := n.SendOfferNotification(context.Background(), OfferNotificationInput{}); err == nil {
			t.Fatalf("expected inner error on call %d", i)
		}
	}
	if n.State() != "open" {
		t.Fatalf("expected open, got %s", n.State())
	}

	if _, err := n.SendOfferNotification(context.Background(), OfferNotificationInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit should not call inner, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &scriptedNotifier{err: errors.New("smtp down")}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})
	n.now = func() time.Time { return now }

	_, _ = n.SendOfferNotification(context.Background(), OfferNotificationInput{})
	if n.State() != "open" {
		t.Fatalf("expected open, got %s", n.State())
	}

	now = now.Add(2 * time.Minute)
	inner.err = nil

	id, err := n.SendOfferNotification(context.Background(), OfferNotificationInput{})
	if err != nil || id != "msg-1" {
		t.Fatalf("expected trial success, got %q %v", id, err)
	}
	if n.State() != "closed" {
		t.Fatalf("expected closed after trial success, got %s", n.State())
	}
}

func TestProtectedNotifier_FailedTrialReopens(t *testing.T) {
	inner := &scriptedNotifier{err: errors.New("smtp down")}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Minute})
	n.now = func() time.Time { return now }

	_, _ = n.SendOfferNotification(context.Background(), OfferNotificationInput{})
	now = now.Add(2 * time.Minute)
	_, _ = n.SendOfferNotification(context.Background(), OfferNotificationInput{})

	if n.State() != "open" {
		t.Fatalf("expected reopened circuit, got %s", n.State())
	}
}

func TestLogNotifier(t *testing.T) {
	t.Setenv("NOTIFIER_FAIL", "")
	t.Setenv("NOTIFIER_SLEEP_MS", "")

	id, err := NewLogNotifier(nil).SendOfferNotification(context.Background(), OfferNotificationInput{Kind: "offer.created"})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.HasPrefix(id, "log-") {
		t.Fatalf("unexpected message id %q", id)
	}

	t.Setenv("NOTIFIER_FAIL", "1")
	if _, err := NewLogNotifier(nil).SendOfferNotification(context.Background(), OfferNotificationInput{}); !errors.Is(err, ErrProviderDown) {
		t.Fatalf("expected ErrProviderDown, got %v", err)
	}
}
