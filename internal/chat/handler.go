// Package chat implements the connection-facing half of the protocol: the
// unauthenticated handshake loop and, once a connection logs in, the paired
// reader/writer tasks that drive its mailbox. Grounded on
// original_source/src/server/service/{mod,unauth,auth,login,send}.rs and
// structured the way internal/pop3's Handler/handleConnection pair
// structures the POP3 session loop.
package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/infodancer/tchatd/internal/logging"
	"github.com/infodancer/tchatd/internal/mailbox"
	"github.com/infodancer/tchatd/internal/metrics"
	"github.com/infodancer/tchatd/internal/registry"
	"github.com/infodancer/tchatd/internal/server"
	"github.com/infodancer/tchatd/internal/wire"
)

// errDisconnect signals a clean, client-initiated end of the connection
// (Logout, EOF) and is never logged as a failure.
var errDisconnect = errors.New("chat: disconnect")

// Config bundles the collaborators a connection handler needs.
type Config struct {
	Registry *registry.Registry
	Metrics  metrics.Collector
	Logger   *slog.Logger
}

// Handler builds a server.ConnectionHandler bound to cfg.
func Handler(cfg Config) server.ConnectionHandler {
	m := cfg.Metrics
	if m == nil {
		m = &metrics.NoopCollector{}
	}

	return func(ctx context.Context, conn *server.Connection) {
		logger := cfg.Logger
		if logger == nil {
			logger = logging.FromContext(ctx)
		}
		logger = logger.With(slog.String("remote_addr", conn.RemoteAddr().String()))

		m.ConnectionOpened()
		defer m.ConnectionClosed()
		defer conn.Close()

		if conn.IsTLS() {
			m.TLSConnectionEstablished()
		}

		sess := NewSession()

		if err := unauthLoop(ctx, conn, sess, cfg.Registry, m, logger); err != nil {
			if !errors.Is(err, errDisconnect) {
				logger.Info("unauth phase ended", slog.String("error", err.Error()))
			}
			return
		}

		runAuthenticated(ctx, conn, sess, cfg.Registry, m, logger)
		cfg.Registry.Unload(sess.Name())
	}
}

// unauthLoop processes requests until Login succeeds (returns nil) or the
// connection ends (returns errDisconnect or an I/O error).
func unauthLoop(ctx context.Context, conn *server.Connection, sess *Session, reg *registry.Registry, m metrics.Collector, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := conn.SetCommandTimeout(); err != nil {
			return err
		}
		line, err := conn.Reader().ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return errDisconnect
			}
			return err
		}
		if err := conn.SetIdleTimeout(); err != nil {
			return err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		req, perr := wire.ParseRequest(line)
		if perr != nil {
			m.BadCommand()
			writeResponse(conn, logger, badCommandResponse(perr))
			continue
		}

		switch body := req.Body.(type) {
		case wire.Login:
			m.RequestProcessed("Login")
			box, err := reg.Load(body.Name, body.Password)
			if err != nil {
				code, ok := errorCodeFor(err)
				if !ok {
					return err
				}
				m.LoginAttempt(false)
				writeResponse(conn, logger, wire.NewError(req.Tag, code))
				continue
			}
			m.LoginAttempt(true)
			sess.Authenticate(body.Name, box)
			// Queue the handshake success rather than writing the socket
			// here: once the writer task starts, it is the sole writer to
			// this connection, eliminating any interleaving with it.
			name := body.Name
			box.Push(wire.NewSuccess(req.Tag, &name))
			return nil
		case wire.Logout:
			return errDisconnect
		case wire.Nop:
			m.RequestProcessed("Nop")
			writeResponse(conn, logger, wire.NewSuccess(req.Tag, nil))
		default:
			m.RequestProcessed("Unauthorized")
			writeResponse(conn, logger, wire.NewError(req.Tag, wire.Unauthorized))
		}
	}
}

// runAuthenticated spawns the reader and writer tasks for an authenticated
// session and returns once both have ended. Whichever ends first stops the
// other: canceling the shared context ends the writer, and closing the
// connection makes a read the reader is blocked in return (first-error-wins
// semantics; golang.org/x/sync/errgroup is not in this module's dependency
// set, so this is the hand-rolled equivalent of original_source's
// tokio::try_join!).
func runAuthenticated(ctx context.Context, conn *server.Connection, sess *Session, reg *registry.Registry, m metrics.Collector, logger *slog.Logger) {
	logger = logger.With(slog.String("user", sess.Name()))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- writerLoop(ctx, conn, sess.Mailbox())
	}()
	go func() {
		errs <- readerLoop(ctx, conn, sess, reg, m)
	}()

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil && !errors.Is(err, errDisconnect) && !errors.Is(err, context.Canceled) {
			logger.Info("auth phase ended", slog.String("error", err.Error()))
		}
		cancel()
		// A reader blocked in ReadString does not observe ctx.
		_ = conn.Close()
	}
}

// writerLoop blocks on the mailbox's notifier and drains it to the wire
// each time it fires, mirroring auth::serve_write's notified()+write_all
// loop.
func writerLoop(ctx context.Context, conn *server.Connection, box *mailbox.Mailbox) error {
	for {
		if !box.Await(ctx.Done()) {
			return ctx.Err()
		}

		err := box.Drain(func(resp any) error {
			r, ok := resp.(wire.Response)
			if !ok {
				return nil
			}
			if _, err := conn.Writer().WriteString(r.Render() + "\n"); err != nil {
				return err
			}
			return conn.Flush()
		})
		if err != nil {
			return err
		}
	}
}

// readerLoop processes Send/SetName/Logout/Nop requests from an
// authenticated connection, mirroring auth::serve_read.
func readerLoop(ctx context.Context, conn *server.Connection, sess *Session, reg *registry.Registry, m metrics.Collector) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := conn.SetIdleTimeout(); err != nil {
			return err
		}
		line, err := conn.Reader().ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return errDisconnect
			}
			return err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		req, perr := wire.ParseRequest(line)
		if perr != nil {
			m.BadCommand()
			sess.Mailbox().Push(badCommandResponse(perr))
			continue
		}

		switch body := req.Body.(type) {
		case wire.Send:
			m.RequestProcessed("Send")
			resp := serveSend(reg, sess, req.Tag, body, m)
			sess.Mailbox().Push(resp)
		case wire.SetName:
			m.RequestProcessed("SetName")
			resp := serveSetName(reg, sess, req.Tag, body.Name)
			sess.Mailbox().Push(resp)
		case wire.Login:
			// Login is legal only pre-auth (see wire.Login's doc comment);
			// an already-authenticated connection renaming itself uses
			// SetName instead.
			m.RequestProcessed("BadCommand")
			sess.Mailbox().Push(wire.NewError(req.Tag, wire.BadCommand))
		case wire.Logout:
			return errDisconnect
		case wire.Nop:
			m.RequestProcessed("Nop")
			sess.Mailbox().Push(wire.NewSuccess(req.Tag, nil))
		}
	}
}

// serveSend delivers msg to receiver's mailbox (creating a Cache mailbox
// for a known-but-offline recipient) and reports success back to the
// sender, mirroring service/send.rs. Fails with NotFound if receiver is
// not in the credential directory at all.
func serveSend(reg *registry.Registry, sess *Session, tag string, body wire.Send, m metrics.Collector) wire.Response {
	target, err := reg.Ensure(body.Receiver)
	if err != nil {
		code, _ := errorCodeFor(err)
		return wire.NewError(tag, code)
	}
	if target.Status() == mailbox.Cache {
		m.MessageCached()
	} else {
		m.MessageDelivered()
	}
	m.MessageQueued()
	target.Push(wire.NewRecv(sess.Name(), body.Message))

	receiver := body.Receiver
	return wire.NewSuccess(tag, &receiver)
}

// serveSetName renames the session's bound mailbox, mirroring
// service/login.rs's authenticated rename path.
func serveSetName(reg *registry.Registry, sess *Session, tag, name string) wire.Response {
	if err := reg.Rename(sess.Name(), name); err != nil {
		code, ok := errorCodeFor(err)
		if !ok {
			return wire.NewError(tag, wire.NotFound)
		}
		return wire.NewError(tag, code)
	}
	sess.Rename(name)
	return wire.NewSuccess(tag, &name)
}

// badCommandResponse echoes the request's tag if ParseRequest recovered one
// before failing, and falls back to an untagged response otherwise.
func badCommandResponse(err error) wire.Response {
	var pe *wire.ParseError
	if errors.As(err, &pe) && pe.Tag != "" {
		return wire.NewError(pe.Tag, wire.BadCommand)
	}
	return wire.NewUntaggedError(wire.BadCommand)
}

func writeResponse(conn *server.Connection, logger *slog.Logger, resp wire.Response) {
	if _, err := conn.Writer().WriteString(resp.Render() + "\n"); err != nil {
		logger.Info("write failed", slog.String("error", err.Error()))
		return
	}
	if err := conn.Flush(); err != nil {
		logger.Info("flush failed", slog.String("error", err.Error()))
	}
}
