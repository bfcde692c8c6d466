// Package pubsub is a thin facade over Redis pattern-based publish/subscribe.
//
// The facade owns two broker connections: one dedicated to pattern
// subscriptions and message delivery, one dedicated to publishing. Broker
// semantics (delivery, pattern matching, connection management) are left
// entirely to the underlying client; this package adds payload
// serialization, channel-matched listener dispatch and channel-based
// fan-out on top.
//
// Alternative broker clients plug in through the Publisher and
// PatternSubscriber interfaces; see the adapter subpackages.
package pubsub
