package bus

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/signal"
)

// KafkaBus backs each subject with its own single-partition topic, so the
// subject space signals.<BROKER>.p.<n> maps one-to-one onto topics and
// partition ownership is expressed purely by which topics a shard reads.
// Consumer-group offsets provide the manual-ack semantics: a message is
// acknowledged by committing it, and uncommitted messages are redelivered.
type KafkaBus struct {
	brokers []string
	log     *zap.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
	closed  bool

	// RedeliveryDelay is the pause before a failed handler sees the same
	// message again.
	RedeliveryDelay time.Duration
}

func NewKafkaBus(brokers []string, log *zap.Logger) *KafkaBus {
	return &KafkaBus{
		brokers:         brokers,
		log:             log,
		writers:         make(map[string]*kafka.Writer),
		RedeliveryDelay: time.Second,
	}
}

// EnsureStream creates the topic the router publishes to (partition 0 of
// the broker's subject space). Topics for higher partition indexes are
// created lazily by Subscribe.
func (b *KafkaBus) EnsureStream(ctx context.Context, broker string) error {
	return b.ensureTopic(ctx, signal.Subject(broker, 0))
}

func (b *KafkaBus) ensureTopic(ctx context.Context, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return err
	}
	return nil
}

func (b *KafkaBus) Publish(ctx context.Context, subject string, payload []byte) error {
	w, err := b.writer(subject)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{
		Value: payload,
		Time:  time.Now(),
	})
}

func (b *KafkaBus) writer(topic string) (*kafka.Writer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("bus closed")
	}
	if w, ok := b.writers[topic]; ok {
		return w, nil
	}
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      b.brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Dialer:       &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: int(kafka.RequireOne),
	})
	b.writers[topic] = w
	return w, nil
}

func (b *KafkaBus) Subscribe(ctx context.Context, subject string, handler Handler) (Subscription, error) {
	// the owned partition may never have been published to yet
	if err := b.ensureTopic(ctx, subject); err != nil {
		return nil, err
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		Topic:    subject,
		GroupID:  durableName(subject),
		MinBytes: 1e3,
		MaxBytes: 1e6,
		MaxWait:  500 * time.Millisecond,
	})

	b.mu.Lock()
	b.readers = append(b.readers, r)
	b.mu.Unlock()

	sub := &kafkaSubscription{closer: r, done: make(chan struct{})}
	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		b.consume(ctx, r, subject, handler, sub.done)
	}()

	return sub, nil
}

// groupReader is the part of kafka.Reader the consume loop uses.
type groupReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// consume fetches one message at a time and never moves past it until the
// handler succeeds. The commit is the acknowledgment, and committing any
// later offset would mark every earlier message on the partition consumed;
// a failed handler therefore retries the same message in place instead of
// fetching the next one.
func (b *KafkaBus) consume(ctx context.Context, r groupReader, subject string, handler Handler, done <-chan struct{}) {
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, kafka.ErrGroupClosed) && !errors.Is(err, io.EOF) {
				b.log.Warn("bus fetch stopped", zap.String("subject", subject), zap.Error(err))
			}
			return
		}
		for {
			err := handler(ctx, m.Value)
			if err == nil {
				break
			}
			b.log.Warn("handler failed, retrying unacked message",
				zap.String("subject", subject),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-time.After(b.RedeliveryDelay):
			}
		}
		if err := r.CommitMessages(ctx, m); err != nil {
			b.log.Error("commit failed", zap.String("subject", subject), zap.Error(err))
		}
	}
}

type kafkaSubscription struct {
	closer io.Closer
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// Drain stops delivery and waits for the in-flight handler to return.
// Unacknowledged messages stay uncommitted, so the group redelivers them
// to the next consumer.
func (s *kafkaSubscription) Drain() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.closer.Close()
	})
	s.wg.Wait()
	return err
}

func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	var firstErr error
	for _, w := range b.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, r := range b.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// durableName derives a consumer-group name from a subject, replacing
// anything outside [A-Za-z0-9] with '_'.
func durableName(subject string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, subject)
}
