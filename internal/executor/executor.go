// Package executor runs one (broker, shard) consumer: it subscribes to
// the subset of the broker's partitions this shard owns, expands each
// signal into account assignments, filters them by per-account partition
// ownership, and hands the survivors to the account worker scheduler.
package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/bus"
	"github.com/chandu88611/tradeRepliction/internal/directory"
	"github.com/chandu88611/tradeRepliction/internal/partition"
	"github.com/chandu88611/tradeRepliction/internal/signal"
	"github.com/chandu88611/tradeRepliction/internal/worker"
)

type Executor struct {
	Broker     string
	Bus        bus.Bus
	Directory  directory.Directory
	Sched      *worker.Scheduler
	Partitions int
	ShardIndex int
	ShardCount int
	Log        *zap.Logger

	subs []bus.Subscription
}

func New(brokerName string, b bus.Bus, dir directory.Directory, sched *worker.Scheduler,
	partitions, shardIndex, shardCount int, log *zap.Logger) *Executor {
	return &Executor{
		Broker:     brokerName,
		Bus:        b,
		Directory:  dir,
		Sched:      sched,
		Partitions: partitions,
		ShardIndex: shardIndex,
		ShardCount: shardCount,
		Log:        log,
	}
}

// Start subscribes to every partition this shard owns. On any subscribe
// failure the already-opened subscriptions are drained and the error is
// returned; a partially subscribed executor must not run.
func (e *Executor) Start(ctx context.Context) error {
	if err := e.Bus.EnsureStream(ctx, e.Broker); err != nil {
		return fmt.Errorf("ensure stream for %s: %w", e.Broker, err)
	}

	owned := 0
	for p := 0; p < e.Partitions; p++ {
		if !partition.Owns(p, e.ShardIndex, e.ShardCount, e.Partitions) {
			continue
		}
		sub, err := e.Bus.Subscribe(ctx, signal.Subject(e.Broker, p), e.handle)
		if err != nil {
			e.drainSubs()
			return fmt.Errorf("subscribe partition %d: %w", p, err)
		}
		e.subs = append(e.subs, sub)
		owned++
	}

	e.Log.Info("executor started",
		zap.String("broker", e.Broker),
		zap.Int("shard", e.ShardIndex),
		zap.Int("shardCount", e.ShardCount),
		zap.Int("ownedPartitions", owned))
	return nil
}

// handle processes one delivered signal. Returning an error leaves the
// message unacknowledged so the bus redelivers it; returning nil
// acknowledges it, which only happens after every owned assignment has
// been handed to the scheduler.
func (e *Executor) handle(ctx context.Context, data []byte) error {
	var sig signal.Event
	if err := json.Unmarshal(data, &sig); err != nil {
		// malformed payloads can never succeed on redelivery
		e.Log.Error("dropping undecodable signal", zap.Error(err))
		return nil
	}

	accounts, err := e.Directory.Expand(ctx, sig, e.Broker)
	if err != nil {
		return fmt.Errorf("expand accounts for %s: %w", sig.ID, err)
	}

	enqueued := 0
	for _, acct := range accounts {
		// double partitioning: whichever partition carried the broker-level
		// message, an account's work runs on exactly one shard
		ap := partition.PartitionOf(acct.AccountID, e.Partitions)
		if !partition.Owns(ap, e.ShardIndex, e.ShardCount, e.Partitions) {
			continue
		}
		e.Sched.Enqueue(worker.Item{Signal: sig, Assignment: acct})
		enqueued++
	}

	e.Log.Debug("signal handed off",
		zap.String("signal", sig.ID),
		zap.String("event", sig.Event.String()),
		zap.Int("accounts", enqueued))
	return nil
}

// Drain stops intake and waits for all dispatched work to finish.
func (e *Executor) Drain() {
	e.drainSubs()
	e.Sched.Wait()
}

func (e *Executor) drainSubs() {
	for _, sub := range e.subs {
		if err := sub.Drain(); err != nil {
			e.Log.Warn("subscription drain", zap.Error(err))
		}
	}
	e.subs = nil
}
