package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientHelloFrame(version uint32) []byte {
	buf := make([]byte, handshakeSize)
	copy(buf, HelloPrefix)
	binary.LittleEndian.PutUint32(buf[len(HelloPrefix):], version)
	return buf
}

type rwBuf struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (b *rwBuf) Read(p []byte) (int, error)  { return b.in.Read(p) }
func (b *rwBuf) Write(p []byte) (int, error) { return b.out.Write(p) }

func TestHandshakeAcceptsMatchingVersion(t *testing.T) {
	rw := &rwBuf{in: bytes.NewBuffer(clientHelloFrame(1)), out: &bytes.Buffer{}}
	version, ok, err := PerformServerSide(rw, func(v uint32) bool { return v == 1 })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), version)

	want := make([]byte, handshakeSize)
	copy(want, AcceptMessage)
	assert.Equal(t, want, rw.out.Bytes())
}

func TestHandshakeRejectsMismatchedVersion(t *testing.T) {
	rw := &rwBuf{in: bytes.NewBuffer(clientHelloFrame(99)), out: &bytes.Buffer{}}
	_, ok, err := PerformServerSide(rw, func(v uint32) bool { return v == 1 })
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rw.out.Bytes())
}

func TestHandshakeRejectsWrongPrefix(t *testing.T) {
	bad := make([]byte, handshakeSize)
	copy(bad, "not the right prefix here......")
	rw := &rwBuf{in: bytes.NewBuffer(bad), out: &bytes.Buffer{}}
	_, _, err := PerformServerSide(rw, func(uint32) bool { return true })
	assert.Error(t, err)
}
