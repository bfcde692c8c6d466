// Package redisv8 adapts a go-redis v8 client to the facade's role
// interfaces, for applications still pinned to the v8 line.
package redisv8

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"

	pubsub "github.com/ShaggyDev/pubsub-redis-wrap"
)

const messageBuffer = 10

// Adapter implements both connection roles over a caller-provided v8
// client. The subscriber-role connection is created at construction.
type Adapter struct {
	client *redis.Client
	pubsub *redis.PubSub

	forward   sync.Once
	msgs      chan *pubsub.Message
	done      chan struct{}
	closeOnce sync.Once
}

var (
	_ pubsub.Publisher         = (*Adapter)(nil)
	_ pubsub.PatternSubscriber = (*Adapter)(nil)
)

func New(client *redis.Client) *Adapter {
	return &Adapter{
		client: client,
		pubsub: client.PSubscribe(context.Background()),
		done:   make(chan struct{}),
	}
}

func (a *Adapter) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	return a.client.Publish(ctx, channel, payload).Result()
}

func (a *Adapter) PSubscribe(ctx context.Context, patterns ...string) error {
	return a.pubsub.PSubscribe(ctx, patterns...)
}

func (a *Adapter) PUnsubscribe(ctx context.Context, patterns ...string) error {
	return a.pubsub.PUnsubscribe(ctx, patterns...)
}

func (a *Adapter) Messages() <-chan *pubsub.Message {
	a.forward.Do(func() {
		a.msgs = make(chan *pubsub.Message, messageBuffer)
		go forwardMessages(a.pubsub.Channel(), a.msgs, a.done)
	})
	return a.msgs
}

// forwardMessages drains src into dst until src closes or done fires, so a
// backlogged buffer cannot strand the goroutine after close.
func forwardMessages(src <-chan *redis.Message, dst chan *pubsub.Message, done <-chan struct{}) {
	defer close(dst)
	for msg := range src {
		m := &pubsub.Message{
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

func (a *Adapter) Close() error {
	a.closeOnce.Do(func() { close(a.done) })
	err := a.pubsub.Close()
	if cerr := a.client.Close(); err == nil {
		err = cerr
	}
	return err
}
