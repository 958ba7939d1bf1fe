// Package transport accepts client connections and turns the byte
// streams into parsed messages for the dispatcher.
package transport

import (
	"context"
	"net"

	"github.com/rs/zerolog"

	"github.com/nwin/rauta/internal/client"
	"github.com/nwin/rauta/internal/config"
	"github.com/nwin/rauta/internal/irc"
	"github.com/nwin/rauta/internal/metrics"
	"github.com/nwin/rauta/internal/rdns"
	"github.com/nwin/rauta/internal/user"
)

// Handler consumes connection lifecycle events and parsed messages.
// Inbound and Hangup for one connection are called from that
// connection's read goroutine, so they arrive in stream order.
type Handler interface {
	Connected(c client.Client)
	Inbound(id client.ID, msg *irc.Message)
	Hangup(id client.ID)
}

// Server is the TCP front of the IRC server.
type Server struct {
	cfg     config.Config
	logger  *zerolog.Logger
	metrics *metrics.Metrics
	handler Handler
}

// NewServer wires the listener to its message handler.
func NewServer(cfg config.Config, logger *zerolog.Logger, m *metrics.Metrics, handler Handler) *Server {
	return &Server{cfg: cfg, logger: logger, metrics: m, handler: handler}
}

// ListenAndServe accepts connections until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from an existing listener until the
// context is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		sock, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(ctx, sock)
	}
}

func (s *Server) handleConn(ctx context.Context, sock net.Conn) {
	s.metrics.ConnectionsAccepted.Inc()

	host := hostOf(sock.RemoteAddr())
	if s.cfg.ResolveHostnames {
		host = rdns.Resolve(ctx, s.logger, sock.RemoteAddr())
	}

	id := client.NewID(sock.LocalAddr(), sock.RemoteAddr())
	c := newConn(sock, s.cfg.SendQueueDepth)
	cl := client.New(id, user.New(host), s.cfg.ServerName, c)

	s.logger.Debug().Str("peer", sock.RemoteAddr().String()).Str("host", host).Msg("connection accepted")
	s.handler.Connected(cl)

	go c.writeLoop()
	s.readLoop(id, c)

	s.handler.Hangup(id)
	s.logger.Debug().Str("peer", sock.RemoteAddr().String()).Msg("connection closed")
}

// readLoop feeds the socket through the line framer and hands every
// parsed message to the handler. It returns when the socket dies,
// which also covers teardown initiated by the write side.
func (s *Server) readLoop(id client.ID, c *conn) {
	framer := irc.NewLineFramer()
	buf := make([]byte, irc.MaxLineLen)
	dropped := 0
	for {
		n, err := c.sock.Read(buf)
		if n > 0 {
			for _, line := range framer.Feed(buf[:n]) {
				s.metrics.LinesRead.Inc()
				msg, perr := irc.ParseMessage(line)
				if perr != nil {
					s.metrics.LinesMalformed.Inc()
					s.logger.Debug().Err(perr).Msg("unparsable line")
					continue
				}
				s.handler.Inbound(id, msg)
			}
			if d := framer.Malformed + framer.Oversized; d > dropped {
				s.metrics.LinesMalformed.Add(float64(d - dropped))
				dropped = d
			}
		}
		if err != nil {
			c.Close()
			return
		}
	}
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
