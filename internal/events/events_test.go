package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/rfphub/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordingPublisher struct {
	types []Type
	err   error
	ctxOK bool
}

func (r *recordingPublisher) Publish(ctx context.Context, t Type, _ any) error {
	r.types = append(r.types, t)
	r.ctxOK = ctx.Err() == nil
	return r.err
}

func TestNewEnvelope_JSONShape(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	env := NewEnvelope(OfferCreated, map[string]string{"offer_id": "o1"}, now)

	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, k := range []string{"id", "type", "payload", "timestamp"} {
		if _, ok := got[k]; !ok {
			t.Fatalf("missing key %q in %s", k, b)
		}
	}
	if got["type"] != "offer.created" {
		t.Fatalf("unexpected type %v", got["type"])
	}
	if got["timestamp"] != "2026-03-01T11:00:00Z" {
		t.Fatalf("expected utc timestamp, got %v", got["timestamp"])
	}
	if env.ID == "" {
		t.Fatalf("expected id")
	}
}

func TestNoopPublisher(t *testing.T) {
	if err := (NoopPublisher{}).Publish(context.Background(), PoolJoined, nil); err != nil {
		t.Fatalf("noop returned %v", err)
	}
}

func TestEmitter_SwallowsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	pub := &recordingPublisher{err: errors.New("broker down")}
	e := NewEmitter(pub, prom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e.Emit(ctx, RFPPublished, map[string]string{"rfp_id": "r1"})

	if len(pub.types) != 1 || pub.types[0] != RFPPublished {
		t.Fatalf("unexpected publishes %v", pub.types)
	}
	if !pub.ctxOK {
		t.Fatalf("publish context should outlive a cancelled request")
	}
	if got := testutil.ToFloat64(prom.EventsPublished.WithLabelValues("rfp.published", "error")); got != 1 {
		t.Fatalf("expected 1 failed publish, got %v", got)
	}
}

func TestEmitter_NilSafe(t *testing.T) {
	var e *Emitter
	e.Emit(context.Background(), OfferAccepted, nil)

	NewEmitter(nil, nil).Emit(context.Background(), OfferAccepted, nil)
}
