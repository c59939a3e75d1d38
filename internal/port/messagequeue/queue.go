// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Publisher sends messages to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Queue is a Publisher backed by a live broker connection.
type Queue interface {
	Publisher

	// Drain flushes pending publishes before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for NATS subjects used by SchoolPay.
const (
	SubjectPaymentUpserted = "payments.upserted"
)

// Noop discards every message. It stands in when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, []byte) error { return nil }
func (Noop) Drain() error                                  { return nil }
func (Noop) Close() error                                  { return nil }
func (Noop) IsConnected() bool                             { return false }
