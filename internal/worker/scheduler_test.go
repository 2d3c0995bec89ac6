package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/allocation"
	"github.com/chandu88611/tradeRepliction/internal/signal"
)

func item(accountID, signalID string) Item {
	one := 1.0
	return Item{
		Signal: signal.Event{ID: signalID, Event: signal.EventNew, Symbol: "NSE:TCS", Side: signal.SideBuy, Qty: 10},
		Assignment: allocation.Assignment{
			AccountID:  accountID,
			Broker:     "ZERODHA",
			Allocation: allocation.Rule{Mode: allocation.ModePercentOfMaster, Multiplier: &one},
		},
	}
}

// tracker records execution interleaving across accounts.
type tracker struct {
	mu         sync.Mutex
	running    map[string]int
	maxTotal   int32
	total      int32
	order      map[string][]string
	overlapped bool
}

func newTracker() *tracker {
	return &tracker{running: make(map[string]int), order: make(map[string][]string)}
}

func (tr *tracker) dispatch(_ context.Context, it Item) {
	acc := it.Assignment.AccountID

	tr.mu.Lock()
	tr.running[acc]++
	if tr.running[acc] > 1 {
		tr.overlapped = true
	}
	tr.order[acc] = append(tr.order[acc], it.Signal.ID)
	tr.mu.Unlock()

	cur := atomic.AddInt32(&tr.total, 1)
	for {
		max := atomic.LoadInt32(&tr.maxTotal)
		if cur <= max || atomic.CompareAndSwapInt32(&tr.maxTotal, max, cur) {
			break
		}
	}

	time.Sleep(2 * time.Millisecond)

	atomic.AddInt32(&tr.total, -1)
	tr.mu.Lock()
	tr.running[acc]--
	tr.mu.Unlock()
}

func TestSchedulerSerializesPerAccount(t *testing.T) {
	tr := newTracker()
	s := NewScheduler(8, tr.dispatch, zap.NewNop())

	for i := 0; i < 20; i++ {
		s.Enqueue(item("ACC-1", fmt.Sprintf("S-%d", i)))
	}
	s.Wait()

	assert.False(t, tr.overlapped, "two executions ran concurrently for one account")
	require.Len(t, tr.order["ACC-1"], 20)
	for i, id := range tr.order["ACC-1"] {
		assert.Equal(t, fmt.Sprintf("S-%d", i), id, "items must run in enqueue order")
	}
}

func TestSchedulerBackToBackSignalsKeepArrivalOrder(t *testing.T) {
	tr := newTracker()
	s := NewScheduler(4, tr.dispatch, zap.NewNop())

	s.Enqueue(item("ACC-9", "S-first"))
	s.Enqueue(item("ACC-9", "S-second"))
	s.Wait()

	assert.Equal(t, []string{"S-first", "S-second"}, tr.order["ACC-9"])
}

func TestSchedulerRespectsTokenBudget(t *testing.T) {
	const budget = 3
	tr := newTracker()
	s := NewScheduler(budget, tr.dispatch, zap.NewNop())

	for i := 0; i < 40; i++ {
		s.Enqueue(item(fmt.Sprintf("ACC-%d", i), fmt.Sprintf("S-%d", i)))
	}
	s.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&tr.maxTotal), int32(budget))
}

func TestSchedulerRunsEveryItem(t *testing.T) {
	var count int32
	s := NewScheduler(2, func(_ context.Context, _ Item) {
		atomic.AddInt32(&count, 1)
	}, zap.NewNop())

	for i := 0; i < 10; i++ {
		for j := 0; j < 5; j++ {
			s.Enqueue(item(fmt.Sprintf("ACC-%d", i), fmt.Sprintf("S-%d-%d", i, j)))
		}
	}
	s.Wait()

	assert.Equal(t, int32(50), atomic.LoadInt32(&count))
	assert.Zero(t, s.Backlog())
}

func TestSchedulerConcurrentEnqueues(t *testing.T) {
	tr := newTracker()
	s := NewScheduler(16, tr.dispatch, zap.NewNop())

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				s.Enqueue(item(fmt.Sprintf("ACC-%d", i%5), fmt.Sprintf("S-%d-%d", g, i)))
			}
		}(g)
	}
	wg.Wait()
	s.Wait()

	assert.False(t, tr.overlapped)
	n := 0
	for _, ids := range tr.order {
		n += len(ids)
	}
	assert.Equal(t, 200, n)
}
