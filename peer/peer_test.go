package peer

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalCompactPeers(t *testing.T) {
	blob := []byte{
		127, 0, 0, 1, 0x1A, 0xE1,
		10, 0, 0, 5, 0x00, 0x50,
	}
	peers, err := Unmarshal(blob)
	require.NoError(t, err)
	require.Len(t, peers, 2)
	require.True(t, net.IP{127, 0, 0, 1}.Equal(peers[0].IP))
	require.EqualValues(t, 0x1AE1, peers[0].Port)
	require.True(t, net.IP{10, 0, 0, 5}.Equal(peers[1].IP))
	require.EqualValues(t, 80, peers[1].Port)
}

func TestUnmarshalRejectsNonMultipleOf6(t *testing.T) {
	_, err := Unmarshal(make([]byte, 7))
	require.Error(t, err)
}

func TestHandshakeRoundTrip(t *testing.T) {
	infoHash := [20]byte{1, 2, 3}
	peerID := [20]byte{4, 5, 6}
	h := NewHandshake(infoHash, peerID)

	var buf bytes.Buffer
	buf.Write(h.Serialize())

	parsed, err := ReadHandshake(&buf)
	require.NoError(t, err)
	require.Equal(t, pstr, parsed.Pstr)
	require.Equal(t, infoHash, parsed.InfoHash)
	require.Equal(t, peerID, parsed.PeerID)
}

func TestDoHandshakeDetectsInfoHashMismatch(t *testing.T) {
	// Simulate a peer replying with a different info_hash than ours.
	theirHandshake := NewHandshake([20]byte{9, 9, 9}, [20]byte{7, 7, 7})

	conn := &loopback{reply: theirHandshake.Serialize()}
	_, err := DoHandshake(conn, [20]byte{1, 1, 1}, [20]byte{2, 2, 2})
	require.Error(t, err)
}

func TestDoHandshakeSucceeds(t *testing.T) {
	infoHash := [20]byte{1, 1, 1}
	theirHandshake := NewHandshake(infoHash, [20]byte{7, 7, 7})
	conn := &loopback{reply: theirHandshake.Serialize()}

	remoteID, err := DoHandshake(conn, infoHash, [20]byte{2, 2, 2})
	require.NoError(t, err)
	require.Equal(t, [20]byte{7, 7, 7}, remoteID)
}

// loopback discards writes and always reads back a fixed reply,
// letting handshake tests run without a real socket.
type loopback struct {
	reply []byte
	read  bytes.Reader
	armed bool
}

func (l *loopback) Write(p []byte) (int, error) { return len(p), nil }

func (l *loopback) Read(p []byte) (int, error) {
	if !l.armed {
		l.read = *bytes.NewReader(l.reply)
		l.armed = true
	}
	return l.read.Read(p)
}
