package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newLoggedTokensRepo(buf *bytes.Buffer) *RefreshTokensRepo {
	return &RefreshTokensRepo{logger: slog.New(slog.NewJSONHandler(buf, nil))}
}

func TestRevokeFamily_FailureIsLoggedAndReturned(t *testing.T) {
	var buf bytes.Buffer
	repo := newLoggedTokensRepo(&buf)

	dbErr := errors.New("connection reset")
	err := repo.revokeFamily(context.Background(), "user-7", func(context.Context) error { return dbErr })
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("log line is not json: %v %q", err, buf.String())
	}
	if rec["level"] != "ERROR" || rec["msg"] != "refresh_tokens.revoke_family_error" || rec["user_id"] != "user-7" {
		t.Fatalf("unexpected log record %v", rec)
	}

	// the reused-token sentinel must survive the join so the handler still answers 401
	joined := errors.Join(ErrRefreshTokenRevoked, err)
	if !errors.Is(joined, ErrRefreshTokenRevoked) {
		t.Fatalf("joined error lost ErrRefreshTokenRevoked")
	}
}

func TestRevokeFamily_SuccessWarns(t *testing.T) {
	var buf bytes.Buffer
	repo := newLoggedTokensRepo(&buf)

	called := false
	err := repo.revokeFamily(context.Background(), "user-7", func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("err=%v called=%v", err, called)
	}
	if out := buf.String(); !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, "refresh_tokens.reuse_detected") {
		t.Fatalf("unexpected log output %q", out)
	}
}
