package bus

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryBus is an in-process Bus with the same delivery contract as the
// Kafka implementation: messages survive until a handler acknowledges them
// by returning nil, and a failed handler sees the same message again.
// It backs tests and single-node local runs.
type MemoryBus struct {
	mu       sync.Mutex
	subjects map[string]*memSubject
	closed   bool

	// RedeliveryDelay is the pause before a failed message is retried.
	RedeliveryDelay time.Duration
}

type memSubject struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending [][]byte
	sub     bool
	done    bool
}

func newMemSubject() *memSubject {
	s := &memSubject{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subjects:        make(map[string]*memSubject),
		RedeliveryDelay: 5 * time.Millisecond,
	}
}

func (b *MemoryBus) subject(name string) *memSubject {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.subjects[name]
	if !ok {
		s = newMemSubject()
		b.subjects[name] = s
	}
	return s
}

func (b *MemoryBus) EnsureStream(ctx context.Context, broker string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("bus closed")
	}
	return nil
}

func (b *MemoryBus) Publish(ctx context.Context, subject string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("bus closed")
	}
	b.mu.Unlock()

	s := b.subject(subject)
	cp := make([]byte, len(payload))
	copy(cp, payload)

	s.mu.Lock()
	s.pending = append(s.pending, cp)
	s.cond.Signal()
	s.mu.Unlock()
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, subject string, handler Handler) (Subscription, error) {
	s := b.subject(subject)

	s.mu.Lock()
	if s.sub {
		s.mu.Unlock()
		return nil, errors.New("subject already has a durable consumer: " + subject)
	}
	s.sub = true
	s.mu.Unlock()

	sub := &memSubscription{subj: s}
	sub.wg.Add(1)

	go func() {
		defer sub.wg.Done()
		for {
			s.mu.Lock()
			for len(s.pending) == 0 && !s.done {
				s.cond.Wait()
			}
			if s.done {
				s.mu.Unlock()
				return
			}
			msg := s.pending[0]
			s.mu.Unlock()

			if err := handler(ctx, msg); err != nil {
				// unacknowledged: keep it at the head and retry
				time.Sleep(b.RedeliveryDelay)
				continue
			}

			s.mu.Lock()
			s.pending = s.pending[1:]
			s.mu.Unlock()
		}
	}()

	return sub, nil
}

type memSubscription struct {
	subj *memSubject
	wg   sync.WaitGroup
	once sync.Once
}

// Drain stops delivery after the in-flight handler returns. Pending
// messages stay queued.
func (s *memSubscription) Drain() error {
	s.once.Do(func() {
		s.subj.mu.Lock()
		s.subj.done = true
		s.subj.cond.Broadcast()
		s.subj.mu.Unlock()
	})
	s.wg.Wait()
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	subjects := make([]*memSubject, 0, len(b.subjects))
	for _, s := range b.subjects {
		subjects = append(subjects, s)
	}
	b.closed = true
	b.mu.Unlock()

	for _, s := range subjects {
		s.mu.Lock()
		s.done = true
		s.cond.Broadcast()
		s.mu.Unlock()
	}
	return nil
}

// Pending reports the number of undelivered messages on a subject, used by
// tests to assert acknowledgment behavior.
func (b *MemoryBus) Pending(subject string) int {
	s := b.subject(subject)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
