package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/rfphub/internal/observability"
)

const emitTimeout = 2 * time.Second

// Emitter publishes best-effort: failures are logged and counted, never
// returned to the HTTP caller.
type Emitter struct {
	pub  Publisher
	prom *observability.Prom
}

func NewEmitter(pub Publisher, prom *observability.Prom) *Emitter {
	if pub == nil {
		pub = NoopPublisher{}
	}
	return &Emitter{pub: pub, prom: prom}
}

func (e *Emitter) Emit(ctx context.Context, t Type, payload any) {
	if e == nil {
		return
	}

	// Detach from request cancellation; the response may already be written.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	err := e.pub.Publish(pctx, t, payload)
	e.prom.ObserveEvent(string(t), err)

	if err != nil {
		slog.Default().WarnContext(ctx, "event.publish_failed", "type", t, "err", err)
	}
}
