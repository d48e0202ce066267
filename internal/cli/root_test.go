package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/job"
)

type fakeBackend struct {
	migrated   bool
	seeded     bool
	seedResult bool
	retried    string
	retryErr   error
	limit      int
	ttl        time.Duration
	closed     bool
}

func (f *fakeBackend) Migrate(ctx context.Context) error { f.migrated = true; return nil }

func (f *fakeBackend) SeedAdmin(ctx context.Context) (bool, error) {
	f.seeded = true
	return f.seedResult, nil
}

func (f *fakeBackend) RetryJob(ctx context.Context, id string) error {
	f.retried = id
	return f.retryErr
}

func (f *fakeBackend) RetryFailed(ctx context.Context, limit int) (int64, error) {
	f.limit = limit
	return 3, nil
}

func (f *fakeBackend) RequeueStale(ctx context.Context, ttl time.Duration) (int64, error) {
	f.ttl = ttl
	return 2, nil
}

func (f *fakeBackend) Close() { f.closed = true }

func run(t *testing.T, b *fakeBackend, args ...string) (string, error) {
	t.Helper()

	opened := 0
	root := NewRootCmd(func(ctx context.Context) (Backend, error) {
		opened++
		if _, ok := ctx.Deadline(); !ok {
			t.Fatalf("backend opened without a deadline")
		}
		return b, nil
	}, "test")

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	b := &fakeBackend{}
	out, err := run(t, b, "migrate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.migrated || !b.closed {
		t.Fatalf("expected migrate and close, got %+v", b)
	}
	if !strings.Contains(out, "schema applied") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSeedAdmin(t *testing.T) {
	b := &fakeBackend{seedResult: true}
	out, err := run(t, b, "seed-admin")
	if err != nil || !b.seeded {
		t.Fatalf("err=%v seeded=%v", err, b.seeded)
	}
	if !strings.Contains(out, "created") {
		t.Fatalf("unexpected output %q", out)
	}

	b = &fakeBackend{}
	out, _ = run(t, b, "seed-admin")
	if !strings.Contains(out, "already present") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestJobsRetryFailed(t *testing.T) {
	b := &fakeBackend{}
	out, err := run(t, b, "jobs", "retry-failed", "--limit", "20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.limit != 20 {
		t.Fatalf("expected limit 20, got %d", b.limit)
	}
	if !strings.Contains(out, "requeued 3 failed jobs") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestJobsRetryFailed_RejectsBadLimit(t *testing.T) {
	b := &fakeBackend{}
	if _, err := run(t, b, "jobs", "retry-failed", "--limit", "0"); err == nil {
		t.Fatalf("expected error for zero limit")
	}
	if b.closed {
		t.Fatalf("backend must not be opened for an invalid flag")
	}
}

func TestJobsRequeueStale(t *testing.T) {
	b := &fakeBackend{}
	out, err := run(t, b, "jobs", "requeue-stale", "--ttl", "90s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ttl != 90*time.Second {
		t.Fatalf("expected 90s ttl, got %v", b.ttl)
	}
	if !strings.Contains(out, "requeued 2 stale jobs") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestJobsRetry(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr string
	}{
		{name: "ok"},
		{name: "missing", err: job.ErrJobNotFound, wantErr: "not found"},
		{name: "not_failed", err: job.ErrJobNotFailed, wantErr: "not in failed state"},
		{name: "db", err: errors.New("boom"), wantErr: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{retryErr: tt.err}
			_, err := run(t, b, "jobs", "retry", "job-1")

			if b.retried != "job-1" {
				t.Fatalf("expected job-1 to be retried, got %q", b.retried)
			}
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCheckCron(t *testing.T) {
	if _, err := run(t, &fakeBackend{}, "check-cron", "*/5 * * * *"); err != nil {
		t.Fatalf("valid expression rejected: %v", err)
	}
	if _, err := run(t, &fakeBackend{}, "check-cron", "not a cron"); err == nil {
		t.Fatalf("expected invalid expression to fail")
	}
}

func TestOpenFailureIsReported(t *testing.T) {
	root := NewRootCmd(func(ctx context.Context) (Backend, error) {
		return nil, errors.New("connection refused")
	}, "test")
	root.SetArgs([]string{"migrate"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "connect: connection refused") {
		t.Fatalf("unexpected error %v", err)
	}
}
