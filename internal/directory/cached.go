package directory

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/chandu88611/tradeRepliction/internal/allocation"
	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// Cached decorates a Directory with a TTL cache keyed by broker, so the
// per-signal expansion does not hit the backing store on every delivery.
type Cached struct {
	next Directory
	c    *ristretto.Cache
	ttl  time.Duration
}

func NewCached(next Directory, ttl time.Duration) (*Cached, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 24, // ~16MB
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, c: c, ttl: ttl}, nil
}

func (d *Cached) Expand(ctx context.Context, sig signal.Event, broker string) ([]allocation.Assignment, error) {
	if v, ok := d.c.Get(broker); ok {
		if assignments, ok := v.([]allocation.Assignment); ok {
			return assignments, nil
		}
	}
	assignments, err := d.next.Expand(ctx, sig, broker)
	if err != nil {
		return nil, err
	}
	d.c.SetWithTTL(broker, assignments, int64(len(assignments)+1), d.ttl)
	return assignments, nil
}
