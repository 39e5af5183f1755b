package publisher

import "context"

// Publisher delivers a finished report to downstream consumers
type Publisher interface {
	// Publish sends one message
	Publish(ctx context.Context, message []byte) error

	// Close closes the publisher connection
	Close() error
}
