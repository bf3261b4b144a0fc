package server

import (
	"bufio"
	"crypto/tls"
	"net"
	"sync"
	"time"
)

// Connection wraps a net.Conn with the buffered reader/writer, idle/command
// timeouts, and TLS upgrade path every listener mode needs. It plays the
// role original_source/src/server/stream.rs's QuipStream and
// QuipBufReader/QuipBufWriter play together: a single full-duplex handle a
// driver goroutine reads requests from and writes responses to.
type Connection struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	remoteAddr     net.Addr
	isTLS          bool
	idleTimeout    time.Duration
	commandTimeout time.Duration
	closed         bool
}

// NewConnection wraps conn, which may already be a *tls.Conn if accepted
// from a TLS listener.
func NewConnection(conn net.Conn, idleTimeout, commandTimeout time.Duration) *Connection {
	_, isTLS := conn.(*tls.Conn)
	return &Connection{
		conn:           conn,
		reader:         bufio.NewReader(conn),
		writer:         bufio.NewWriter(conn),
		remoteAddr:     conn.RemoteAddr(),
		isTLS:          isTLS,
		idleTimeout:    idleTimeout,
		commandTimeout: commandTimeout,
	}
}

// Reader returns the buffered reader for reading request lines.
func (c *Connection) Reader() *bufio.Reader {
	return c.reader
}

// Writer returns the buffered writer for writing response lines.
func (c *Connection) Writer() *bufio.Writer {
	return c.writer
}

// Flush flushes any buffered response bytes to the socket.
func (c *Connection) Flush() error {
	return c.writer.Flush()
}

// RemoteAddr returns the address of the connected peer.
func (c *Connection) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// IsTLS reports whether the connection is currently using TLS.
func (c *Connection) IsTLS() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isTLS
}

// SetIdleTimeout sets the connection's read and write deadline to the
// configured idle timeout from now.
func (c *Connection) SetIdleTimeout() error {
	if c.idleTimeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.idleTimeout))
}

// SetCommandTimeout sets the connection's read and write deadline to the
// per-command timeout from now.
func (c *Connection) SetCommandTimeout() error {
	if c.commandTimeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.commandTimeout))
}

// UpgradeToTLS performs a server-side TLS handshake over the existing
// connection and replaces the buffered reader/writer with ones backed by
// the TLS session. Returns ErrAlreadyTLS if already upgraded.
func (c *Connection) UpgradeToTLS(cfg *tls.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isTLS {
		return ErrAlreadyTLS
	}

	tlsConn := tls.Server(c.conn, cfg)
	if err := tlsConn.Handshake(); err != nil {
		return err
	}

	c.conn = tlsConn
	c.reader = bufio.NewReader(tlsConn)
	c.writer = bufio.NewWriter(tlsConn)
	c.isTLS = true
	return nil
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// IsClosed reports whether Close has already been called.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
