package pubsub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

const (
	messageBuffer = 10

	probeRetries         = 5
	probeInitialInterval = 100 * time.Millisecond
	probeMaxInterval     = 5 * time.Second
)

// Conn holds the two go-redis connections behind the facade: a regular
// client for publishing and arbitrary commands, and a PubSub connection for
// pattern subscriptions. It implements both Publisher and PatternSubscriber.
type Conn struct {
	client *redis.Client
	pubsub *redis.PubSub

	forward   sync.Once
	msgs      chan *Message
	done      chan struct{}
	closeOnce sync.Once
}

var (
	_ Publisher         = (*Conn)(nil)
	_ PatternSubscriber = (*Conn)(nil)
)

// Dial creates both role connections and probes the broker until it
// answers. opts is handed to go-redis verbatim.
func Dial(opts *redis.Options) (*Conn, error) {
	client := redis.NewClient(opts)
	conn := &Conn{
		client: client,
		pubsub: client.PSubscribe(context.Background()),
		done:   make(chan struct{}),
	}
	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Client returns the publish-role client.
func (c *Conn) Client() *redis.Client {
	return c.client
}

// Ping probes the broker, retrying with exponential backoff until it
// answers, the retry budget runs out, or ctx is done. This is a readiness
// check only; established connections are never re-dialed here.
func (c *Conn) Ping(ctx context.Context) error {
	strategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(probeInitialInterval),
				backoff.WithMaxInterval(probeMaxInterval),
			),
			probeRetries,
		),
		ctx,
	)
	return pingWithRetry(func() error {
		return c.client.Ping(ctx).Err()
	}, strategy)
}

func pingWithRetry(probe func() error, strategy backoff.BackOff) error {
	if err := backoff.Retry(probe, strategy); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (c *Conn) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	return c.client.Publish(ctx, channel, payload).Result()
}

func (c *Conn) PSubscribe(ctx context.Context, patterns ...string) error {
	return c.pubsub.PSubscribe(ctx, patterns...)
}

func (c *Conn) PUnsubscribe(ctx context.Context, patterns ...string) error {
	return c.pubsub.PUnsubscribe(ctx, patterns...)
}

// Messages forwards deliveries from the subscriber connection into the
// generic message format. The returned channel closes when the connection
// closes.
func (c *Conn) Messages() <-chan *Message {
	c.forward.Do(func() {
		c.msgs = make(chan *Message, messageBuffer)
		go forwardMessages(c.pubsub.Channel(), c.msgs, c.done)
	})
	return c.msgs
}

// forwardMessages drains src into dst until src closes or done fires, so a
// backlogged buffer cannot strand the goroutine after close.
func forwardMessages(src <-chan *redis.Message, dst chan *Message, done <-chan struct{}) {
	defer close(dst)
	for msg := range src {
		m := &Message{
			Pattern: msg.Pattern,
			Channel: msg.Channel,
			Payload: []byte(msg.Payload),
		}
		select {
		case dst <- m:
		case <-done:
			return
		}
	}
}

// Close closes both connections and releases the forwarding goroutine.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	err := c.pubsub.Close()
	if cerr := c.client.Close(); err == nil {
		err = cerr
	}
	return err
}
