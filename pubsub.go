package pubsub

import (
	"context"
	"errors"
)

var (
	// ErrInvalidArgument is returned when a publish is attempted without a
	// channel or without a message body.
	ErrInvalidArgument = errors.New("pubsub: invalid argument")
	// ErrClosed is returned when operations are attempted on a closed facade.
	ErrClosed = errors.New("pubsub: closed")
)

// Message is a single delivery from the broker: the subscribed pattern it
// matched, the concrete channel it was published to, and the raw body.
type Message struct {
	Pattern string
	Channel string
	Payload []byte
}

// Publisher is the publish-role broker connection.
type Publisher interface {
	// Publish sends payload to the literal channel and returns the number
	// of subscriber connections that received it.
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
	Close() error
}

// PatternSubscriber is the subscribe-role broker connection. A connection in
// subscriber mode cannot issue ordinary commands, which is why the two roles
// are never shared.
type PatternSubscriber interface {
	PSubscribe(ctx context.Context, patterns ...string) error
	// PUnsubscribe with no patterns removes every active pattern.
	PUnsubscribe(ctx context.Context, patterns ...string) error
	// Messages returns the delivery channel. It is closed when the
	// connection closes.
	Messages() <-chan *Message
	Close() error
}
