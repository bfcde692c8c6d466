package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Handler receives channel-matched deliveries with the payload decode
// attempt already applied.
type Handler func(channel string, payload Payload)

// RawHandler receives every delivery, undecoded.
type RawHandler func(pattern, channel string, payload []byte)

type listener struct {
	matcher Matcher
	handler Handler
}

// Facade wraps the two broker connections behind subscribe, unsubscribe,
// publish, Listen and OnMessage. Registered callbacks accumulate for the
// facade's lifetime; there is no unlisten.
type Facade struct {
	pub Publisher
	sub PatternSubscriber

	// conn is set only when the facade was constructed over go-redis and
	// owns both roles through a single Conn.
	conn *Conn

	logger *slog.Logger

	// mu protects patterns, listeners, rawHandlers and closed
	mu          sync.RWMutex
	patterns    map[string]struct{}
	listeners   []listener
	rawHandlers []RawHandler
	closed      bool

	// stopChan signals the dispatch goroutine to stop
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Option configures a Facade.
type Option func(*Facade)

// WithLogger sets the logger used to report broker failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		f.logger = logger
	}
}

// New opens a facade over go-redis. opts is passed to the client verbatim;
// both role connections are established eagerly and the broker is probed
// before the facade is returned.
func New(opts *redis.Options, fopts ...Option) (*Facade, error) {
	conn, err := Dial(opts)
	if err != nil {
		return nil, err
	}
	f := newFacade(conn, conn, fopts...)
	f.conn = conn
	return f, nil
}

// NewWithBroker opens a facade over explicit role connections, typically an
// adapter or a test double.
func NewWithBroker(pub Publisher, sub PatternSubscriber, fopts ...Option) *Facade {
	return newFacade(pub, sub, fopts...)
}

func newFacade(pub Publisher, sub PatternSubscriber, fopts ...Option) *Facade {
	f := &Facade{
		pub:      pub,
		sub:      sub,
		patterns: make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}
	for _, opt := range fopts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.wg.Add(1)
	go f.dispatch()
	return f
}

// Subscribe registers the glob patterns on the subscriber connection and
// returns the number of patterns active afterwards. Broker failures
// propagate to the caller.
func (f *Facade) Subscribe(ctx context.Context, patterns ...string) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if len(patterns) == 0 {
		return f.activePatterns(), nil
	}
	if err := f.sub.PSubscribe(ctx, patterns...); err != nil {
		f.logger.Error("pattern subscribe failed", "patterns", patterns, "error", err)
		return f.activePatterns(), fmt.Errorf("failed to subscribe: %w", err)
	}

	f.mu.Lock()
	for _, p := range patterns {
		f.patterns[p] = struct{}{}
	}
	n := len(f.patterns)
	f.mu.Unlock()
	return n, nil
}

// Unsubscribe removes the given patterns, or every active pattern when
// called with none, and returns the number still active.
func (f *Facade) Unsubscribe(ctx context.Context, patterns ...string) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if err := f.sub.PUnsubscribe(ctx, patterns...); err != nil {
		f.logger.Error("pattern unsubscribe failed", "patterns", patterns, "error", err)
		return f.activePatterns(), fmt.Errorf("failed to unsubscribe: %w", err)
	}

	f.mu.Lock()
	if len(patterns) == 0 {
		f.patterns = make(map[string]struct{})
	}
	for _, p := range patterns {
		delete(f.patterns, p)
	}
	n := len(f.patterns)
	f.mu.Unlock()
	return n, nil
}

// Publish sends message to the literal channel (no pattern expansion) and
// returns the number of subscriber connections that received it. Both
// channel and message must be present.
func (f *Facade) Publish(ctx context.Context, channel string, message any) (int64, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if channel == "" {
		return 0, fmt.Errorf("%w: channel is required", ErrInvalidArgument)
	}
	body, err := encodeMessage(message)
	if err != nil {
		return 0, err
	}

	receivers, err := f.pub.Publish(ctx, channel, body)
	if err != nil {
		f.logger.Error("publish failed", "channel", channel, "error", err)
		return 0, fmt.Errorf("failed to publish to %q: %w", channel, err)
	}
	return receivers, nil
}

// Listen registers a handler invoked for deliveries whose channel satisfies
// the matcher. Registrations are additive; earlier ones keep firing.
func (f *Facade) Listen(matcher Matcher, handler Handler) {
	f.mu.Lock()
	f.listeners = append(f.listeners, listener{matcher: matcher, handler: handler})
	f.mu.Unlock()
}

// OnMessage registers a handler invoked for every delivery regardless of
// pattern, with the raw body.
func (f *Facade) OnMessage(handler RawHandler) {
	f.mu.Lock()
	f.rawHandlers = append(f.rawHandlers, handler)
	f.mu.Unlock()
}

// Publisher exposes the publish-role go-redis client so callers can issue
// arbitrary commands outside the pub/sub surface. It is nil when the facade
// was built over explicit role connections.
func (f *Facade) Publisher() *redis.Client {
	if f.conn == nil {
		return nil
	}
	return f.conn.Client()
}

// Close tears down both connections and waits for the dispatch goroutine.
// It is safe to call more than once.
func (f *Facade) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	close(f.stopChan)

	var err error
	if f.conn != nil {
		err = f.conn.Close()
	} else {
		err = f.sub.Close()
		if perr := f.pub.Close(); err == nil {
			err = perr
		}
	}
	f.wg.Wait()
	return err
}

func (f *Facade) checkOpen() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrClosed
	}
	return nil
}

func (f *Facade) activePatterns() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.patterns)
}

// dispatch drains the subscriber connection and invokes callbacks
// sequentially, in receipt order.
func (f *Facade) dispatch() {
	defer f.wg.Done()

	msgs := f.sub.Messages()
	for {
		select {
		case <-f.stopChan:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			f.deliver(msg)
		}
	}
}

func (f *Facade) deliver(msg *Message) {
	f.mu.RLock()
	rawHandlers := make([]RawHandler, len(f.rawHandlers))
	copy(rawHandlers, f.rawHandlers)
	listeners := make([]listener, len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.RUnlock()

	for _, h := range rawHandlers {
		h(msg.Pattern, msg.Channel, msg.Payload)
	}

	if len(listeners) == 0 {
		return
	}
	payload := DecodePayload(msg.Payload)
	for _, l := range listeners {
		if l.matcher.MatchChannel(msg.Channel) {
			l.handler(msg.Channel, payload)
		}
	}
}
