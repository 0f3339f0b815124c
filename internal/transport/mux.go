/*
 * file: mux.go
 * package: transport
 * description:
 *     C3: module-keyed request dispatch and the push-notification fan-out.
 *     The Mux is the one place that knows how to turn a decoded frame into
 *     a service call and a wire response, and it is the services.Notifier
 *     the core services push unsolicited events through.
 */

package transport

import (
	"log/slog"
	"sync"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/core/services"
	"github.com/dvdyellow/server/internal/protocol"
)

// Mux dispatches module requests to their handlers and implements
// services.Notifier for pushed notifications.
type Mux struct {
	log *slog.Logger

	auth     *AuthAdapter
	handlers map[int]moduleHandler

	registryMu sync.RWMutex
	registry   map[domain.ConnID]*Connection
}

// moduleHandler pairs a module's commands with its permission requirement.
type moduleHandler struct {
	requiresAuth bool
	dispatch     func(conn domain.ConnID, body protocol.RequestBody) protocol.Fields
}

// AuthAdapter is the thin predicate the mux consults before dispatching to
// an authenticated-only module; it is satisfied by *services.AuthService.
type AuthAdapter struct {
	Auth *services.AuthService
}

func (a *AuthAdapter) isAuthenticated(conn domain.ConnID) bool {
	_, ok := a.Auth.UserFor(conn)
	return ok
}

// NewMux builds a dispatcher with no modules registered yet. A Mux is
// itself a stable services.Notifier from the moment it's constructed (Push
// only touches the connection registry), which lets the core services that
// need to push notifications be built against it before Bind supplies the
// module handlers those same services implement — breaking what would
// otherwise be a construction cycle between the mux and the services.
func NewMux(log *slog.Logger) *Mux {
	return &Mux{
		log:      log,
		handlers: make(map[int]moduleHandler),
		registry: make(map[domain.ConnID]*Connection),
	}
}

// Bind registers the three modules' handlers once their services exist.
// Must be called exactly once, before Serve starts accepting connections.
func (m *Mux) Bind(auth *services.AuthService, presence *services.PresenceService, match *services.MatchService) {
	m.auth = &AuthAdapter{Auth: auth}
	m.handlers[protocol.ModuleAuth] = moduleHandler{
		requiresAuth: false,
		dispatch:     authDispatch(auth),
	}
	m.handlers[protocol.ModulePresence] = moduleHandler{
		requiresAuth: true,
		dispatch:     presenceDispatch(presence),
	}
	m.handlers[protocol.ModuleMatchmaker] = moduleHandler{
		requiresAuth: true,
		dispatch:     matchDispatch(match, auth),
	}
}

// register/unregister maintain the connection-id -> Connection table the
// mux needs to implement Push (services hold only opaque ConnIDs).
func (m *Mux) register(c *Connection) {
	m.registryMu.Lock()
	m.registry[c.ID] = c
	m.registryMu.Unlock()
}

func (m *Mux) unregister(id domain.ConnID) {
	m.registryMu.Lock()
	delete(m.registry, id)
	m.registryMu.Unlock()
}

// Push implements services.Notifier: best-effort write of a server
// notification to conn, silently dropped if the connection is gone.
func (m *Mux) Push(conn domain.ConnID, channel int, fields protocol.Fields) {
	m.registryMu.RLock()
	c, ok := m.registry[conn]
	m.registryMu.RUnlock()
	if !ok {
		return
	}
	if err := c.WriteRecord(protocol.Record{Channel: channel, Body: fields}); err != nil {
		m.log.Warn("push failed", "conn", conn, "channel", channel, "err", err)
	}
}

// Dispatch decodes one channel-0 request payload, routes it to the owning
// module's handler (subject to the permission predicate), and returns the
// response Record ready to be framed back.
func (m *Mux) Dispatch(conn domain.ConnID, body interface{}) protocol.Record {
	req, err := protocol.DecodeRequestBody(body)
	if err != nil {
		return protocol.Record{Channel: protocol.ChannelResponse, Body: protocol.ErrorFields("MALFORMED_REQUEST")}
	}

	h, ok := m.handlers[req.Module]
	if !ok {
		return protocol.Record{Channel: protocol.ChannelResponse, Body: protocol.ErrorFields("NO_SUCH_MODULE")}
	}
	if h.requiresAuth && !m.auth.isAuthenticated(conn) {
		return protocol.Record{Channel: protocol.ChannelResponse, Body: protocol.ErrorFields("NOT_SIGNED_IN")}
	}

	fields := h.dispatch(conn, req)
	return protocol.Record{Channel: protocol.ChannelResponse, Body: fields}
}

// asAppErrorFields turns a (Fields, error) service return into the wire
// response shape, converting any *protocol.AppError into {status:"error",
// code}; an error of another type is a server-internal bug and is logged
// and surfaced as a generic token rather than crashing.
func asAppErrorFields(log *slog.Logger, fields protocol.Fields, err error) protocol.Fields {
	if err == nil {
		return fields
	}
	if appErr, ok := err.(*protocol.AppError); ok {
		return protocol.ErrorFields(appErr.Code)
	}
	log.Error("unexpected service error", "err", err)
	return protocol.ErrorFields("INTERNAL_ERROR")
}
