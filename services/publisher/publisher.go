package publisher

// Publisher represents a service for publishing accepted deals to a
// downstream feed
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// Noop is a Publisher that discards everything. Used when no Redis address
// is configured.
type Noop struct{}

// Publish discards the message
func (Noop) Publish(key string, message []byte) error { return nil }

// TrimStreams does nothing
func (Noop) TrimStreams() error { return nil }

// Close does nothing
func (Noop) Close() error { return nil }
