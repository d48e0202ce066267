package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/rfphub/internal/domain/job"
	"github.com/geocoder89/rfphub/internal/jobs"
)

type fakeEnqueuer struct {
	reqs []job.CreateRequest
	keys map[string]bool
	err  error
}

func (f *fakeEnqueuer) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	if f.err != nil {
		return job.Job{}, f.err
	}
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	f.reqs = append(f.reqs, req)
	f.keys[*req.IdempotencyKey] = true
	return job.New(req), nil
}

func TestTick_EnqueuesBothSweepsWithSlotKeys(t *testing.T) {
	fe := &fakeEnqueuer{}
	s, err := New(fe, "*/5 * * * *", nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 5, 4, 10, 15, 42, 0, time.UTC) }

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("second tick: %v", err)
	}

	if len(fe.reqs) != 4 {
		t.Fatalf("expected 4 create calls, got %d", len(fe.reqs))
	}
	if len(fe.keys) != 2 {
		t.Fatalf("expected 2 distinct idempotency keys, got %v", fe.keys)
	}
	if !fe.keys["pools.expire:202605041015"] || !fe.keys["rfps.expire:202605041015"] {
		t.Fatalf("unexpected keys %v", fe.keys)
	}

	p, err := jobs.DecodePayload(jobs.JobType(fe.reqs[0].Type), fe.reqs[0].Payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := p.(jobs.SweepPayload).Slot; !got.Equal(time.Date(2026, 5, 4, 10, 15, 0, 0, time.UTC)) {
		t.Fatalf("unexpected slot %s", got)
	}
}

func TestTick_ReportsEnqueueError(t *testing.T) {
	fe := &fakeEnqueuer{err: errors.New("db down")}
	s, _ := New(fe, "* * * * *", nil)

	if err := s.Tick(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_RejectsBadCron(t *testing.T) {
	if _, err := New(&fakeEnqueuer{}, "every minute", nil); err == nil {
		t.Fatalf("expected invalid cron error")
	}
}
