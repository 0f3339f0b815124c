/*
 * file: handshake.go
 * package: protocol
 * description:
 *     The fixed 64-byte handshake (C2) that gates every new connection
 *     before the framed protocol of frame.go takes over.
 */

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	handshakeSize = 64

	// HelloPrefix is the literal 17-byte ASCII prefix the client sends,
	// right-padded with NUL to handshakeSize. This string is also where the
	// project's name comes from.
	HelloPrefix = "dvdyellow hello: "

	// AcceptMessage is the literal string the server sends back,
	// right-padded with NUL to handshakeSize, when it accepts the client's
	// version.
	AcceptMessage = "dvdyellow accepted"
)

// VersionPredicate decides whether a client-offered version is acceptable.
type VersionPredicate func(version uint32) bool

// ReadClientHello reads and validates the client's 64-byte hello frame,
// returning the offered version. Any deviation from the expected shape is
// reported as an error; the caller must close the connection on error.
func ReadClientHello(r io.Reader) (uint32, error) {
	var buf [handshakeSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("protocol: reading client hello: %w", err)
	}
	prefix := buf[:len(HelloPrefix)]
	if string(prefix) != HelloPrefix {
		return 0, fmt.Errorf("protocol: client hello has wrong prefix")
	}
	rest := buf[len(HelloPrefix):]
	version := binary.LittleEndian.Uint32(rest[:4])
	for _, b := range rest[4:] {
		if b != 0 {
			return 0, fmt.Errorf("protocol: client hello padding is not NUL")
		}
	}
	return version, nil
}

// WriteServerAccept writes the server's 64-byte accept frame.
func WriteServerAccept(w io.Writer) error {
	var buf [handshakeSize]byte
	copy(buf[:], AcceptMessage)
	_, err := w.Write(buf[:])
	return err
}

// PerformServerSide runs the server half of the handshake over conn: read
// the client hello, check it against accept, and either write the accept
// frame or return an error (the caller closes the connection either way
// accept is false or err != nil).
func PerformServerSide(rw io.ReadWriter, accept VersionPredicate) (version uint32, ok bool, err error) {
	version, err = ReadClientHello(rw)
	if err != nil {
		return 0, false, err
	}
	if !accept(version) {
		return version, false, nil
	}
	if err := WriteServerAccept(rw); err != nil {
		return version, false, err
	}
	return version, true, nil
}
