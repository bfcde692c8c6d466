package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultStreamBuffer = 16
	defaultSendTimeout  = 100 * time.Millisecond
)

// Streams is channel-based consumption on top of a Facade. Each pattern has
// one underlying broker subscription shared by every registered client; the
// PSUBSCRIBE is issued when the first client registers and the PUNSUBSCRIBE
// when the last one leaves.
type Streams struct {
	facade *Facade
	logger *slog.Logger

	// mu protects active
	mu     sync.RWMutex
	active map[string]*fanout

	bufferSize  int
	sendTimeout time.Duration
}

// fanout distributes one pattern's deliveries to its client channels.
type fanout struct {
	mu      sync.RWMutex
	clients map[string]chan *Message
}

// StreamOption configures Streams.
type StreamOption func(*Streams)

// WithStreamBuffer sets the per-client channel buffer.
func WithStreamBuffer(size int) StreamOption {
	return func(s *Streams) {
		s.bufferSize = size
	}
}

// WithSendTimeout bounds how long a delivery may wait on a full client
// channel before being dropped for that client.
func WithSendTimeout(d time.Duration) StreamOption {
	return func(s *Streams) {
		s.sendTimeout = d
	}
}

// NewStreams attaches a stream layer to the facade.
func NewStreams(facade *Facade, opts ...StreamOption) *Streams {
	s := &Streams{
		facade:      facade,
		logger:      facade.logger,
		active:      make(map[string]*fanout),
		bufferSize:  defaultStreamBuffer,
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	facade.OnMessage(s.route)
	return s
}

// Register returns a channel carrying every delivery for the pattern. The
// channel is closed when the client unregisters or the streams are stopped.
func (s *Streams) Register(ctx context.Context, pattern, clientID string) (<-chan *Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fo, ok := s.active[pattern]
	if !ok {
		if _, err := s.facade.Subscribe(ctx, pattern); err != nil {
			return nil, err
		}
		fo = &fanout{clients: make(map[string]chan *Message)}
		s.active[pattern] = fo
	}

	client := make(chan *Message, s.bufferSize)
	fo.mu.Lock()
	fo.clients[clientID] = client
	fo.mu.Unlock()
	return client, nil
}

// Unregister removes the client and, when it was the pattern's last one,
// drops the underlying subscription.
func (s *Streams) Unregister(ctx context.Context, pattern, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fo, ok := s.active[pattern]
	if !ok {
		return nil
	}

	fo.mu.Lock()
	if client, ok := fo.clients[clientID]; ok {
		close(client)
		delete(fo.clients, clientID)
	}
	empty := len(fo.clients) == 0
	fo.mu.Unlock()

	if !empty {
		return nil
	}
	delete(s.active, pattern)
	if _, err := s.facade.Unsubscribe(ctx, pattern); err != nil {
		return err
	}
	return nil
}

// Stop closes every client channel and drops every subscription.
func (s *Streams) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pattern, fo := range s.active {
		fo.mu.Lock()
		for id, client := range fo.clients {
			close(client)
			delete(fo.clients, id)
		}
		fo.mu.Unlock()

		delete(s.active, pattern)
		if _, err := s.facade.Unsubscribe(ctx, pattern); err != nil {
			s.logger.Error("failed to unsubscribe pattern on stop", "pattern", pattern, "error", err)
		}
	}
}

func (s *Streams) route(pattern, channel string, payload []byte) {
	s.mu.RLock()
	fo := s.active[pattern]
	s.mu.RUnlock()
	if fo == nil {
		return
	}

	msg := &Message{Pattern: pattern, Channel: channel, Payload: payload}
	fo.mu.RLock()
	for id, client := range fo.clients {
		select {
		case client <- msg:
		case <-time.After(s.sendTimeout):
			s.logger.Warn("dropping delivery for slow stream client", "pattern", pattern, "client", id)
		}
	}
	fo.mu.RUnlock()
}
