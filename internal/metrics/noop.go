package metrics

// NoopCollector is a no-op implementation of the Collector interface.
// All methods are empty stubs that do nothing.
type NoopCollector struct{}

// ConnectionOpened is a no-op.
func (n *NoopCollector) ConnectionOpened() {}

// ConnectionClosed is a no-op.
func (n *NoopCollector) ConnectionClosed() {}

// TLSConnectionEstablished is a no-op.
func (n *NoopCollector) TLSConnectionEstablished() {}

// LoginAttempt is a no-op.
func (n *NoopCollector) LoginAttempt(success bool) {}

// RequestProcessed is a no-op.
func (n *NoopCollector) RequestProcessed(kind string) {}

// BadCommand is a no-op.
func (n *NoopCollector) BadCommand() {}

// MessageQueued is a no-op.
func (n *NoopCollector) MessageQueued() {}

// MessageDelivered is a no-op.
func (n *NoopCollector) MessageDelivered() {}

// MessageCached is a no-op.
func (n *NoopCollector) MessageCached() {}
