package booking

import (
	"context"

	"boozstudio/internal/events"
)

// EventPublisher receives reservation events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, kind string, ev events.ReservationEvent) error
}

// IdempotencyStore replays reserve responses per Idempotency-Key.
type IdempotencyStore interface {
	Begin(ctx context.Context, scope, key string) ([]byte, error)
	Finish(ctx context.Context, scope, key string, body []byte) error
	Abort(ctx context.Context, scope, key string) error
}
