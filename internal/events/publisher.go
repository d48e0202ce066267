package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Type string

const (
	RFPPublished  Type = "rfp.published"
	OfferCreated  Type = "offer.created"
	OfferAccepted Type = "offer.accepted"
	PoolJoined    Type = "pool.joined"
)

// Envelope is the JSON body of every published event.
type Envelope struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEnvelope(t Type, payload any, now time.Time) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: now.UTC(),
	}
}

var ErrNacked = errors.New("amqp: broker nacked publish")

type Publisher interface {
	Publish(ctx context.Context, t Type, payload any) error
}

// AMQPPublisher sends persistent JSON messages to the topic exchange using
// the event type as routing key, and waits for the broker's confirm.
type AMQPPublisher struct {
	conn   *Connection
	logger *slog.Logger
}

func NewAMQPPublisher(conn *Connection, logger *slog.Logger) *AMQPPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{conn: conn, logger: logger}
}

func (p *AMQPPublisher) Publish(ctx context.Context, t Type, payload any) error {
	env := NewEnvelope(t, payload, time.Now())

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, Exchange, string(t), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.ID,
			Timestamp:    env.Timestamp,
			Type:         string(t),
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", t, err)
		}

		if dc != nil {
			acked, err := dc.WaitContext(ctx)
			if err != nil {
				return fmt.Errorf("confirm %s: %w", t, err)
			}
			if !acked {
				return fmt.Errorf("publish %s: %w", t, ErrNacked)
			}
		}

		p.logger.DebugContext(ctx, "event.published", "type", t, "event_id", env.ID)
		return nil
	})
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Type, any) error { return nil }
