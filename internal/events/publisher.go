// Package events publishes reservation events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	ReservationCreated   = "reservation.created"
	ReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is the JSON body of both reservation events.
type ReservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	AccountID     string    `json:"account_id"`
	Email         string    `json:"email"`
	ClassName     string    `json:"class_name"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	PackageRef    string    `json:"package_ref"`
	PaymentMethod string    `json:"payment_method"`
	Amount        int64     `json:"amount"`
	Balance       int64     `json:"balance"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher dials the broker per message; reservations are low volume.
type Publisher struct {
	url    string
	prefix string
	log    zerolog.Logger
}

func NewPublisher(url, queuePrefix string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, prefix: queuePrefix, log: log}
}

func (p *Publisher) queue(kind string) string {
	if p.prefix == "" {
		return kind
	}
	return p.prefix + "." + kind
}

// Publish sends ev to the durable queue named after kind as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, kind string, ev ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	name := p.queue(kind)
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq declare %s: %w", name, err)
	}

	err = ch.PublishWithContext(ctx, "", name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.ReservationID,
		Type:         kind,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", name, err)
	}

	p.log.Debug().Str("queue", name).Str("reservation_id", ev.ReservationID).Msg("event published")
	return nil
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, ReservationEvent) error { return nil }
