package events

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	Exchange = "rfphub.events"

	// AuditQueue receives every marketplace event.
	AuditQueue = "rfphub.events.audit"
)

// DeclareTopology creates the durable topic exchange and the audit queue.
func DeclareTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", Exchange, err)
		}

		if _, err := ch.QueueDeclare(AuditQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", AuditQueue, err)
		}

		if err := ch.QueueBind(AuditQueue, "#", Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", AuditQueue, err)
		}

		return nil
	})
}
