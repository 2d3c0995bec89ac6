// Package directory resolves which sub-accounts participate in a signal
// for a given broker, and under which allocation rules. The owning system
// of record is external; this package provides the lookup boundary plus a
// Postgres-backed implementation, a static table for tests and local runs,
// and a TTL-cached decorator.
package directory

import (
	"context"
	"fmt"

	"github.com/chandu88611/tradeRepliction/internal/allocation"
	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// Directory expands a (signal, broker) pair into account assignments.
// Implementations may be I/O bound; callers pass a context.
type Directory interface {
	Expand(ctx context.Context, sig signal.Event, broker string) ([]allocation.Assignment, error)
}

// Static serves assignments from a fixed in-memory table keyed by broker.
type Static struct {
	accounts map[string][]allocation.Assignment
}

func NewStatic(accounts map[string][]allocation.Assignment) (*Static, error) {
	for broker, assignments := range accounts {
		seen := make(map[string]struct{}, len(assignments))
		for _, a := range assignments {
			if err := a.Validate(); err != nil {
				return nil, fmt.Errorf("broker %s: %w", broker, err)
			}
			if _, dup := seen[a.AccountID]; dup {
				return nil, fmt.Errorf("broker %s: duplicate accountId %s", broker, a.AccountID)
			}
			seen[a.AccountID] = struct{}{}
		}
	}
	return &Static{accounts: accounts}, nil
}

func (s *Static) Expand(_ context.Context, _ signal.Event, broker string) ([]allocation.Assignment, error) {
	return s.accounts[broker], nil
}

// NewMock builds a static directory with n pass-through accounts per
// broker, named <BROKER>-ACC-<i>. It stands in when no database is
// configured.
func NewMock(brokers []string, n int) *Static {
	one := 1.0
	accounts := make(map[string][]allocation.Assignment, len(brokers))
	for _, broker := range brokers {
		assignments := make([]allocation.Assignment, 0, n)
		for i := 1; i <= n; i++ {
			assignments = append(assignments, allocation.Assignment{
				AccountID: fmt.Sprintf("%s-ACC-%d", broker, i),
				Broker:    broker,
				Allocation: allocation.Rule{
					Mode:       allocation.ModePercentOfMaster,
					Multiplier: &one,
				},
			})
		}
		accounts[broker] = assignments
	}
	return &Static{accounts: accounts}
}
