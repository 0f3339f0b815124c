/*
 * file: server.go
 * package: transport
 * description:
 *     C4: the accept loop. One goroutine per connection implements the
 *     "readiness-selectable set" of §4.4 via the Go runtime's netpoller
 *     rather than a hand-rolled select loop; single-writer-per-connection is
 *     enforced by serially looping a connection's own goroutine through
 *     handshake then frame dispatch.
 */

package transport

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/core/services"
	"github.com/dvdyellow/server/internal/metrics"
	"github.com/dvdyellow/server/internal/protocol"
)

// Server owns the listener and the set of live connections.
type Server struct {
	log      *slog.Logger
	mux      *Mux
	auth     *services.AuthService
	presence *services.PresenceService
	match    *services.MatchService

	handshakeVersion uint32

	listener net.Listener
	closing  atomic.Bool

	connsMu sync.Mutex
	conns   map[domain.ConnID]*Connection
	wg      sync.WaitGroup
}

// NewServer constructs a Server wired to the three core services; mux must
// be the same Mux instance passed as their Notifier.
func NewServer(log *slog.Logger, mux *Mux, auth *services.AuthService, presence *services.PresenceService, match *services.MatchService, handshakeVersion uint32) *Server {
	return &Server{
		log:              log,
		mux:              mux,
		auth:             auth,
		presence:         presence,
		match:            match,
		handshakeVersion: handshakeVersion,
		conns:            make(map[domain.ConnID]*Connection),
	}
}

// Serve accepts connections on ln until Shutdown is called. It blocks until
// the accept loop exits.
func (s *Server) Serve(ln net.Listener) error {
	s.listener = ln
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return err
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Shutdown sets the cooperative close flag, closes the listener to unblock
// Accept, closes every live connection (first writing a best-effort
// channel-15 server-shutdown notification to each of them, whether or not
// it is in a game), and waits for every connection goroutine to exit.
func (s *Server) Shutdown() {
	s.closing.Store(true)
	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.connsMu.Lock()
	conns := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.Unlock()

	for _, c := range conns {
		_ = c.WriteRecord(protocol.Record{
			Channel: protocol.ChannelGameEvent,
			Body: protocol.Fields{
				"notification": "game-finished",
				"detail":       "server-shutdown",
			},
		})
		_ = c.Close()
	}
	s.wg.Wait()
}

func (s *Server) handleConnection(netConn net.Conn) {
	defer s.wg.Done()
	defer netConn.Close()

	_ = netConn.SetReadDeadline(time.Now().Add(10 * time.Second))
	version, ok, err := protocol.PerformServerSide(netConn, func(v uint32) bool { return v == s.handshakeVersion })
	_ = netConn.SetReadDeadline(time.Time{})
	if err != nil || !ok {
		s.log.Debug("handshake rejected", "version", version, "ok", ok, "err", err)
		return
	}

	conn := newConnection(netConn)
	s.connsMu.Lock()
	s.conns[conn.ID] = conn
	s.connsMu.Unlock()
	s.mux.register(conn)
	metrics.ConnectionsOpen.Inc()

	defer s.disconnect(conn)

	for {
		payload, err := conn.ReadFrame()
		if err != nil {
			return
		}
		rec, err := protocol.DecodePayload(payload)
		if err != nil {
			return
		}
		if rec.Channel != protocol.ChannelResponse {
			continue // client never sends a push-channel frame
		}
		resp := s.mux.Dispatch(conn.ID, rec.Body)
		if err := conn.WriteRecord(resp); err != nil {
			return
		}
	}
}

// disconnect runs the §7 recovery order: game abandon before auth/presence
// bijection cleanup, so a disconnecting game-owner still resolves cleanly
// even though its auth entry is about to disappear.
func (s *Server) disconnect(conn *Connection) {
	s.match.HandleDisconnect(conn.ID)
	s.presence.HandleDisconnect(conn.ID)
	s.auth.HandleDisconnect(conn.ID)

	s.mux.unregister(conn.ID)
	s.connsMu.Lock()
	delete(s.conns, conn.ID)
	s.connsMu.Unlock()
	metrics.ConnectionsOpen.Dec()
}
