// Package inmemory is a process-local broker implementing the facade's role
// interfaces, with redis-style glob matching of patterns against channels.
// It exists for tests and examples that should not need a running broker.
package inmemory

import (
	"context"
	"sync"

	pubsub "github.com/ShaggyDev/pubsub-redis-wrap"
)

const messageBuffer = 64

// Broker implements both connection roles in-process. A published message is
// delivered once per active pattern it matches, mirroring broker behavior
// for a single subscriber connection.
type Broker struct {
	mu       sync.Mutex
	patterns map[string]struct{}
	msgs     chan *pubsub.Message
	closed   bool
}

var (
	_ pubsub.Publisher         = (*Broker)(nil)
	_ pubsub.PatternSubscriber = (*Broker)(nil)
)

func New() *Broker {
	return &Broker{
		patterns: make(map[string]struct{}),
		msgs:     make(chan *pubsub.Message, messageBuffer),
	}
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, pubsub.ErrClosed
	}

	var receivers int64
	for pattern := range b.patterns {
		if !Match(pattern, channel) {
			continue
		}
		select {
		case b.msgs <- &pubsub.Message{Pattern: pattern, Channel: channel, Payload: payload}:
			receivers++
		case <-ctx.Done():
			return receivers, ctx.Err()
		}
	}
	return receivers, nil
}

func (b *Broker) PSubscribe(ctx context.Context, patterns ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return pubsub.ErrClosed
	}
	for _, p := range patterns {
		b.patterns[p] = struct{}{}
	}
	return nil
}

func (b *Broker) PUnsubscribe(ctx context.Context, patterns ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return pubsub.ErrClosed
	}
	if len(patterns) == 0 {
		b.patterns = make(map[string]struct{})
		return nil
	}
	for _, p := range patterns {
		delete(b.patterns, p)
	}
	return nil
}

func (b *Broker) Messages() <-chan *pubsub.Message {
	return b.msgs
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.msgs)
	}
	return nil
}
