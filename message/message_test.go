package message

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeAndReadRoundTrip(t *testing.T) {
	msg := &Message{ID: Interested}
	var buf bytes.Buffer
	buf.Write(msg.Serialize())

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, Interested, got.ID)
	require.Empty(t, got.Payload)
}

func TestReadKeepAliveReturnsNil(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 0})
	got, err := Read(&buf)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestReadRejectsUnknownID(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 1, 42})
	_, err := Read(&buf)
	require.Error(t, err)
}

func TestReadRejectsShortStream(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 5, byte(Piece)}) // claims 5 bytes, has 1
	_, err := Read(&buf)
	require.Error(t, err)
}

func TestRequestSerializesBigEndianFields(t *testing.T) {
	msg := NewRequest(1, 16384, 16384)
	var buf bytes.Buffer
	buf.Write(msg.Serialize())

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, Request, got.ID)
	require.Len(t, got.Payload, 12)
	require.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0x40, 0, 0, 0, 0x40, 0}, got.Payload)
}

func TestParseHave(t *testing.T) {
	msg := NewHave(7)
	index, err := ParseHave(msg)
	require.NoError(t, err)
	require.Equal(t, 7, index)
}

func TestParseHaveRejectsWrongID(t *testing.T) {
	_, err := ParseHave(&Message{ID: Choke})
	require.Error(t, err)
}

func TestParsePieceCopiesIntoBuffer(t *testing.T) {
	payload := make([]byte, 8+4)
	payload[3] = 2    // index = 2
	payload[7] = 0x10 // begin = 16
	copy(payload[8:], []byte{0xAA, 0xBB, 0xCC, 0xDD})

	msg := &Message{ID: Piece, Payload: payload}
	buf := make([]byte, 32)
	n, err := ParsePiece(2, 16, buf, msg)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, buf[16:20])
}

func TestParsePieceRejectsMismatchedBlock(t *testing.T) {
	payload := make([]byte, 8)
	payload[3] = 9 // index = 9
	msg := &Message{ID: Piece, Payload: payload}
	buf := make([]byte, 32)
	_, err := ParsePiece(2, 0, buf, msg)
	require.Error(t, err)
}
