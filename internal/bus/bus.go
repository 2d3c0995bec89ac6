// Package bus is the narrow boundary to the durable message substrate.
// The pipeline only needs idempotent stream creation, publish-by-subject,
// durable subscriptions with manual acknowledgment, and drain; anything a
// particular broker technology offers beyond that stays behind this
// interface.
package bus

import "context"

// Handler processes one delivered message. Returning an error leaves the
// message unacknowledged so the bus redelivers it.
type Handler func(ctx context.Context, data []byte) error

// Subscription is one durable subject subscription.
type Subscription interface {
	// Drain stops delivery without losing unacknowledged messages.
	Drain() error
}

// Bus is the durable, partitioned, at-least-once pub/sub substrate.
type Bus interface {
	// EnsureStream creates the durable stream backing one broker's subject
	// space. Creating a stream that already exists is not an error.
	EnsureStream(ctx context.Context, broker string) error

	// Publish writes a payload to a subject. It fails loudly when the bus
	// is unreachable; callers decide whether to retry.
	Publish(ctx context.Context, subject string, payload []byte) error

	// Subscribe attaches a durable consumer to one subject and feeds every
	// delivery through the handler.
	Subscribe(ctx context.Context, subject string, handler Handler) (Subscription, error)

	Close() error
}
