// Package worker serializes order execution per account. Each account has
// a FIFO mailbox; at most one execution runs per account at any instant,
// and the total number of concurrently executing accounts is bounded by a
// shared token pool.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/allocation"
	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// Item is one unit of account work: a signal paired with the account's
// assignment.
type Item struct {
	Signal     signal.Event
	Assignment allocation.Assignment
}

// DispatchFunc executes one work item. It must handle its own failures;
// by the time an item is dispatched it is never re-queued.
type DispatchFunc func(ctx context.Context, item Item)

// Scheduler owns all mutable scheduling state. Every mutation of the
// mailboxes, the in-flight set, and the token counter happens under one
// mutex, which is what preserves the per-account serialization invariant.
type Scheduler struct {
	mu        sync.Mutex
	mailboxes map[string][]Item
	inflight  map[string]struct{}
	tokens    int

	dispatch DispatchFunc
	log      *zap.Logger
	wg       sync.WaitGroup

	// baseCtx governs executions, deliberately detached from the consume
	// context: shutdown stops intake but lets in-flight placements finish.
	baseCtx context.Context
}

func NewScheduler(budget int, dispatch DispatchFunc, log *zap.Logger) *Scheduler {
	if budget < 1 {
		budget = 1
	}
	return &Scheduler{
		mailboxes: make(map[string][]Item),
		inflight:  make(map[string]struct{}),
		tokens:    budget,
		dispatch:  dispatch,
		log:       log,
		baseCtx:   context.Background(),
	}
}

// Enqueue appends the item to its account's mailbox and runs a scheduling
// pass. It never blocks on execution.
func (s *Scheduler) Enqueue(item Item) {
	accountID := item.Assignment.AccountID
	s.mu.Lock()
	s.mailboxes[accountID] = append(s.mailboxes[accountID], item)
	s.schedule()
	s.mu.Unlock()
}

// schedule launches work for every account that has pending items, is not
// already in flight, and can claim a token. Callers must hold s.mu.
func (s *Scheduler) schedule() {
	for accountID, q := range s.mailboxes {
		if s.tokens <= 0 {
			return
		}
		if len(q) == 0 {
			continue
		}
		if _, busy := s.inflight[accountID]; busy {
			continue
		}

		item := q[0]
		s.mailboxes[accountID] = q[1:]
		s.inflight[accountID] = struct{}{}
		s.tokens--
		s.wg.Add(1)
		go s.run(accountID, item)
	}
}

func (s *Scheduler) run(accountID string, item Item) {
	defer s.wg.Done()
	s.dispatch(s.baseCtx, item)

	s.mu.Lock()
	delete(s.inflight, accountID)
	s.tokens++
	if len(s.mailboxes[accountID]) == 0 {
		delete(s.mailboxes, accountID)
	}
	s.schedule()
	s.mu.Unlock()
}

// Wait blocks until every launched execution has completed. Stop enqueuing
// before calling it.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Backlog reports the number of queued (not yet dispatched) items.
func (s *Scheduler) Backlog() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, q := range s.mailboxes {
		n += len(q)
	}
	return n
}
