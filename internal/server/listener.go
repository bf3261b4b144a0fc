package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/infodancer/tchatd/internal/config"
)

// ConnectionHandler processes one accepted connection. It is called in its
// own goroutine and owns the Connection, including closing it: the listener
// does not close the Connection when the handler returns.
type ConnectionHandler func(ctx context.Context, conn *Connection)

// ListenerConfig configures a single Listener.
type ListenerConfig struct {
	Address        string
	Mode           config.ListenerMode
	TLSConfig      *tls.Config
	IdleTimeout    time.Duration
	CommandTimeout time.Duration
	LogTransaction bool
	Logger         *slog.Logger
	Handler        ConnectionHandler
	Limiter        *ConnectionLimiter
}

// Listener accepts connections on one address, optionally performing an
// implicit TLS handshake (config.ModeTLS) before handing the connection to
// the handler — mirroring original_source/src/server/listener/{tcp,tls}.rs's
// split between a bare TcpListener and a TlsListener that wraps accept()
// with a handshake.
type Listener struct {
	cfg ListenerConfig
	ln  net.Listener
}

// NewListener constructs a Listener from cfg. The underlying net.Listener
// is created lazily in Start so construction cannot fail.
func NewListener(cfg ListenerConfig) *Listener {
	return &Listener{cfg: cfg}
}

// Address returns the configured listen address.
func (l *Listener) Address() string {
	return l.cfg.Address
}

// Start binds the listener and accepts connections until ctx is canceled
// or Close is called. Each accepted connection is dispatched to the
// handler in its own goroutine.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.cfg.Address)
	if err != nil {
		return err
	}
	l.ln = ln

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		rawConn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if l.cfg.Logger != nil {
				l.cfg.Logger.Warn("accept error", slog.String("error", err.Error()), slog.String("listener", l.cfg.Address))
			}
			continue
		}

		if l.cfg.Limiter != nil && !l.cfg.Limiter.TryAcquire() {
			if l.cfg.Logger != nil {
				l.cfg.Logger.Warn("connection limit reached, rejecting", slog.String("listener", l.cfg.Address))
			}
			_ = rawConn.Close()
			continue
		}

		if l.cfg.Mode == config.ModeTLS {
			rawConn = tls.Server(rawConn, l.cfg.TLSConfig)
		}

		conn := NewConnection(rawConn, l.cfg.IdleTimeout, l.cfg.CommandTimeout)
		go func() {
			defer func() {
				if l.cfg.Limiter != nil {
					l.cfg.Limiter.Release()
				}
			}()
			l.cfg.Handler(ctx, conn)
		}()
	}
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	if l.ln == nil {
		return nil
	}
	return l.ln.Close()
}
