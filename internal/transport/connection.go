/*
 * file: connection.go
 * package: transport
 * description:
 *     C3's per-connection wrapper: a net.Conn plus its frame Reader, a
 *     wire-level identity, and a write mutex so responses and pushed
 *     notifications never interleave their frames on the socket.
 */

package transport

import (
	"net"
	"sync"

	"github.com/dvdyellow/server/internal/core/domain"
	"github.com/dvdyellow/server/internal/protocol"
	"github.com/google/uuid"
)

// Connection is one live client socket, past the handshake.
type Connection struct {
	ID   domain.ConnID
	conn net.Conn
	rx   *protocol.Reader

	writeMu sync.Mutex
}

// newConnection wraps conn with a freshly minted id and a frame reader.
func newConnection(conn net.Conn) *Connection {
	return &Connection{
		ID:   domain.ConnID(uuid.NewString()),
		conn: conn,
		rx:   protocol.NewReader(conn),
	}
}

// ReadFrame blocks for the next complete payload on this connection.
func (c *Connection) ReadFrame() ([]byte, error) {
	return c.rx.ReadFrame()
}

// WriteRecord serializes and writes rec as one frame. Safe for concurrent
// use: a handler's response and another goroutine's pushed notification
// never interleave mid-frame.
func (c *Connection) WriteRecord(rec protocol.Record) error {
	payload, err := protocol.EncodePayload(rec)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteFrame(c.conn, payload)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}
