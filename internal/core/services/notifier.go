/*
 * file: notifier.go
 * package: services
 * description:
 *     The seam between the game-logic services and the connection mux: a
 *     minimal interface for pushing an unsolicited channel>0 notification
 *     to a specific connection, implemented by the transport layer and
 *     injected into the services that need it (presence, matchmaker).
 */

package services

import (
	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/protocol"
)

// Notifier pushes a server notification to one connection. Implementations
// must be safe for concurrent use. A push may block the caller while the
// write to the peer is in progress; the transport's implementation sets no
// write deadline.
type Notifier interface {
	Push(conn domain.ConnID, channel int, fields protocol.Fields)
}
