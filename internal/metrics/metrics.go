// Package metrics provides interfaces and implementations for collecting
// chat server metrics. This package defines the Collector interface for
// recording metrics and the Server interface for exposing them.
package metrics

import "context"

// Collector defines the interface for recording chat server metrics.
type Collector interface {
	// Connection metrics
	ConnectionOpened()
	ConnectionClosed()
	TLSConnectionEstablished()

	// Authentication metrics
	LoginAttempt(success bool)

	// Request metrics
	RequestProcessed(kind string)
	BadCommand()

	// Message delivery metrics
	MessageQueued()
	MessageDelivered()
	MessageCached()
}

// Server defines the interface for a metrics HTTP server.
type Server interface {
	// Start begins serving metrics. It blocks until the context is canceled
	// or an error occurs.
	Start(ctx context.Context) error

	// Shutdown gracefully stops the metrics server.
	Shutdown(ctx context.Context) error
}
