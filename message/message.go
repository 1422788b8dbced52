// Package message implements the length-prefixed peer-wire message
// framing: read/write typed messages over a stream socket. Keep-alive
// frames (length 0) surface as a nil *Message so callers can ignore
// them without a branch for a dedicated keep-alive type.
package message

import (
	"encoding/binary"
	"io"

	"github.com/StupidAfCoder/gorent/internal/bterr"
)

type ID uint8

const (
	Choke ID = iota
	Unchoke
	Interested
	NotInterested
	Have
	Bitfield
	Request
	Piece
	Cancel
)

func (id ID) String() string {
	switch id {
	case Choke:
		return "choke"
	case Unchoke:
		return "unchoke"
	case Interested:
		return "interested"
	case NotInterested:
		return "not-interested"
	case Have:
		return "have"
	case Bitfield:
		return "bitfield"
	case Request:
		return "request"
	case Piece:
		return "piece"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Message is a single peer-wire message: a one-byte id plus payload.
type Message struct {
	ID      ID
	Payload []byte
}

// Serialize renders the 4-byte big-endian length prefix, the id byte
// and the payload. A nil Message serializes as a keep-alive (a bare
// zero length prefix, no id byte).
func (m *Message) Serialize() []byte {
	if m == nil {
		return make([]byte, 4)
	}
	length := uint32(len(m.Payload) + 1)
	buf := make([]byte, 4+length)
	binary.BigEndian.PutUint32(buf[0:4], length)
	buf[4] = byte(m.ID)
	copy(buf[5:], m.Payload)
	return buf
}

// Read reads exactly one message from r: the 4-byte length, then that
// many bytes. A length of 0 is a keep-alive and comes back as (nil,
// nil). An id outside the recognized set is a protocol violation.
func Read(r io.Reader) (*Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, bterr.Wrap(bterr.Peer, err, "read message length prefix")
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return nil, nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, bterr.Wrap(bterr.Peer, err, "read message body")
	}

	id := ID(body[0])
	if id > Cancel {
		return nil, bterr.New(bterr.Peer, "unknown-message: id %d", id)
	}

	return &Message{ID: id, Payload: body[1:]}, nil
}

// NewRequest builds a Request message for the given block.
func NewRequest(index, begin, length int) *Message {
	payload := make([]byte, 12)
	binary.BigEndian.PutUint32(payload[0:4], uint32(index))
	binary.BigEndian.PutUint32(payload[4:8], uint32(begin))
	binary.BigEndian.PutUint32(payload[8:12], uint32(length))
	return &Message{ID: Request, Payload: payload}
}

// NewHave builds a Have message announcing that we now hold piece index.
func NewHave(index int) *Message {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(index))
	return &Message{ID: Have, Payload: payload}
}

// ParseHave extracts the piece index out of a Have message's payload.
func ParseHave(msg *Message) (int, error) {
	if msg.ID != Have {
		return 0, bterr.New(bterr.Peer, "expected have, got %s", msg.ID)
	}
	if len(msg.Payload) != 4 {
		return 0, bterr.New(bterr.Peer, "have payload length %d, want 4", len(msg.Payload))
	}
	return int(binary.BigEndian.Uint32(msg.Payload)), nil
}

// ParsePiece copies a Piece message's block into buf at its begin
// offset and returns how many bytes it wrote. index and begin are
// checked against the outstanding request; a mismatch is a protocol
// violation (spec: Peer(mismatched-block)).
func ParsePiece(wantIndex, wantBegin int, buf []byte, msg *Message) (int, error) {
	if msg.ID != Piece {
		return 0, bterr.New(bterr.Peer, "expected piece, got %s", msg.ID)
	}
	if len(msg.Payload) < 8 {
		return 0, bterr.New(bterr.Peer, "piece payload length %d, want at least 8", len(msg.Payload))
	}
	index := int(binary.BigEndian.Uint32(msg.Payload[0:4]))
	begin := int(binary.BigEndian.Uint32(msg.Payload[4:8]))
	if index != wantIndex || begin != wantBegin {
		return 0, bterr.New(bterr.Peer, "mismatched-block: want (%d,%d) got (%d,%d)", wantIndex, wantBegin, index, begin)
	}
	data := msg.Payload[8:]
	if begin+len(data) > len(buf) {
		return 0, bterr.New(bterr.Peer, "block overruns piece buffer: begin %d len %d buf %d", begin, len(data), len(buf))
	}
	copy(buf[begin:], data)
	return len(data), nil
}
