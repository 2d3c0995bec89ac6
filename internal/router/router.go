// Package router fans one Signal Event out to every broker's durable
// subject space. Per-broker filtering happens downstream via account
// allocation, so every broker sees every signal.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/bus"
	"github.com/chandu88611/tradeRepliction/internal/signal"
)

type Router struct {
	bus     bus.Bus
	brokers []string
	log     *zap.Logger
}

func New(b bus.Bus, brokers []string, log *zap.Logger) *Router {
	return &Router{bus: b, brokers: brokers, log: log}
}

// EnsureStreams idempotently creates the per-broker streams. Call it once
// at startup; a failure means the bus is unreachable and the process
// should not accept orders.
func (r *Router) EnsureStreams(ctx context.Context) error {
	for _, broker := range r.brokers {
		if err := r.bus.EnsureStream(ctx, broker); err != nil {
			return fmt.Errorf("ensure stream for %s: %w", broker, err)
		}
	}
	return nil
}

// Publish writes the serialized signal to partition 0 of every broker's
// subject space. A failed write is returned to the caller as a transient
// error; nothing is dropped silently.
func (r *Router) Publish(ctx context.Context, sig signal.Event) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal %s: %w", sig.ID, err)
	}
	for _, broker := range r.brokers {
		subject := signal.Subject(broker, 0)
		if err := r.bus.Publish(ctx, subject, payload); err != nil {
			return fmt.Errorf("publish %s to %s: %w", sig.ID, subject, err)
		}
		r.log.Debug("signal published",
			zap.String("signal", sig.ID),
			zap.String("subject", subject))
	}
	return nil
}
