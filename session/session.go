// Package session drives a single peer connection through the
// handshake, the Bitfield/Interested/Unchoke handshake, and the
// sequential Request/Piece exchange that produces verified piece
// bytes. It is synchronous: every suspension point is a blocking
// socket read or write, and at most one Request is ever outstanding.
package session

import (
	"crypto/sha1"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/StupidAfCoder/gorent/helpers/bitfield"
	"github.com/StupidAfCoder/gorent/internal/bterr"
	"github.com/StupidAfCoder/gorent/internal/logging"
	"github.com/StupidAfCoder/gorent/message"
	"github.com/StupidAfCoder/gorent/peer"
)

// BlockSize is the unit of the Request/Piece exchange: 2^14 bytes.
const BlockSize = 16384

// State is one of the named states from the session design. It is
// exported so a host can log or assert on it; nothing in this
// package branches on a string rendering of it.
type State int

const (
	Connected State = iota
	HandshakeDone
	AwaitBitfield
	Interested
	Unchoked
	Downloading
	Closed
)

const defaultTimeout = 30 * time.Second

// Session owns a single peer's socket for the lifetime of the
// connection. No other component reads or writes Conn.
type Session struct {
	Conn         net.Conn
	State        State
	Choked       bool
	Bitfield     bitfield.Bitfield
	Peer         peer.Peer
	PeerID       [20]byte
	RemotePeerID [20]byte
	InfoHash     [20]byte

	log *logrus.Entry
}

// Dial opens a TCP connection to p, performs the handshake and reads
// the peer's initial Bitfield, landing the session in state
// AwaitBitfield. Any failure closes the connection before returning.
func Dial(p peer.Peer, peerID, infoHash [20]byte) (*Session, error) {
	conn, err := net.DialTimeout("tcp", p.String(), defaultTimeout)
	if err != nil {
		return nil, bterr.Wrap(bterr.Peer, err, "dial peer")
	}

	s := &Session{
		Conn:     conn,
		Choked:   true,
		Peer:     p,
		PeerID:   peerID,
		InfoHash: infoHash,
		State:    Connected,
		log:      logging.Log().WithField("peer", p.String()),
	}

	if err := s.handshake(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := s.awaitInitialBitfield(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the session's socket. Safe to call more than once.
func (s *Session) Close() error {
	s.State = Closed
	return s.Conn.Close()
}

// logger returns s.log, falling back to the shared discard-by-default
// logger for a Session built as a struct literal (as tests outside
// this package do over a net.Pipe) rather than via Dial.
func (s *Session) logger() *logrus.Entry {
	if s.log != nil {
		return s.log
	}
	return logging.Log().WithField("peer", s.Peer.String())
}

func (s *Session) handshake() error {
	if err := s.Conn.SetDeadline(time.Now().Add(defaultTimeout)); err != nil {
		return bterr.Wrap(bterr.Io, err, "set handshake deadline")
	}
	defer s.Conn.SetDeadline(time.Time{})

	remoteID, err := peer.DoHandshake(s.Conn, s.InfoHash, s.PeerID)
	if err != nil {
		return err
	}
	s.RemotePeerID = remoteID
	s.State = HandshakeDone
	s.logger().Debug("handshake complete")
	return nil
}

func (s *Session) awaitInitialBitfield() error {
	if err := s.Conn.SetDeadline(time.Now().Add(defaultTimeout)); err != nil {
		return bterr.Wrap(bterr.Io, err, "set bitfield deadline")
	}
	defer s.Conn.SetDeadline(time.Time{})

	msg, err := message.Read(s.Conn)
	if err != nil {
		return err
	}
	if msg == nil || msg.ID != message.Bitfield {
		return bterr.New(bterr.Peer, "expected bitfield as the first message")
	}
	s.Bitfield = bitfield.Bitfield(msg.Payload)
	s.State = AwaitBitfield
	return nil
}

// BecomeInterested sends Interested and blocks until the peer
// unchokes us, handling Choke/Have/keep-alive messages along the way.
// On return the session is in state Unchoked.
func (s *Session) BecomeInterested() error {
	if err := s.send(&message.Message{ID: message.Interested}); err != nil {
		return err
	}
	s.State = Interested

	for {
		msg, err := s.readMessage()
		if err != nil {
			return err
		}
		if msg == nil {
			continue // keep-alive
		}
		switch msg.ID {
		case message.Unchoke:
			s.Choked = false
			s.State = Unchoked
			return nil
		case message.Choke:
			s.Choked = true
			s.State = Interested
		case message.Have:
			if idx, err := message.ParseHave(msg); err == nil {
				s.Bitfield.SetPiece(idx)
			}
		case message.Bitfield, message.NotInterested, message.Cancel:
			// accepted without state change
		default:
			return bterr.New(bterr.Peer, "unexpected message %s while awaiting unchoke", msg.ID)
		}
	}
}

// HasPiece reports whether the peer's bitfield claims piece index.
func (s *Session) HasPiece(index int) bool {
	return s.Bitfield.CheckPiece(index)
}

// DownloadPiece requests every block of a piece_length-byte piece,
// one at a time, and verifies the assembled buffer against hash. A
// hash mismatch is a fatal bterr.Integrity error, per the design: this
// client does not retry piece downloads on integrity failure.
func (s *Session) DownloadPiece(index int, pieceLength int64, hash [20]byte) ([]byte, error) {
	if s.State != Unchoked {
		return nil, bterr.New(bterr.Peer, "cannot download piece %d outside state Unchoked", index)
	}
	s.State = Downloading

	buf := make([]byte, pieceLength)
	var requested int64
	for requested < pieceLength {
		if s.Choked {
			if err := s.waitForUnchoke(); err != nil {
				return nil, err
			}
		}

		blockLen := int64(BlockSize)
		if pieceLength-requested < blockLen {
			blockLen = pieceLength - requested
		}

		if err := s.send(message.NewRequest(index, int(requested), int(blockLen))); err != nil {
			return nil, err
		}
		s.logger().WithFields(logrus.Fields{"piece": index, "begin": requested, "length": blockLen}).Debug("requested block")

		if err := s.awaitBlock(index, int(requested), buf); err != nil {
			return nil, err
		}
		requested += blockLen
	}

	sum := sha1.Sum(buf)
	if sum != hash {
		s.State = Closed
		return nil, bterr.New(bterr.Integrity, "piece-hash: piece %d failed SHA-1 verification", index)
	}
	s.State = Unchoked
	return buf, nil
}

// awaitBlock blocks until the matching Piece response for (index,
// begin) arrives, accepting Choke/Unchoke/Have/keep-alives meanwhile
// without aborting the wait — the request stays outstanding even
// across a Choke, per the design.
func (s *Session) awaitBlock(index, begin int, buf []byte) error {
	for {
		msg, err := s.readMessage()
		if err != nil {
			return err
		}
		if msg == nil {
			continue
		}
		switch msg.ID {
		case message.Piece:
			if _, err := message.ParsePiece(index, begin, buf, msg); err != nil {
				s.State = Closed
				return err
			}
			return nil
		case message.Choke:
			s.Choked = true
		case message.Unchoke:
			s.Choked = false
		case message.Have:
			if idx, err := message.ParseHave(msg); err == nil {
				s.Bitfield.SetPiece(idx)
			}
		case message.Bitfield, message.NotInterested, message.Cancel:
			// accepted without state change
		default:
			return bterr.New(bterr.Peer, "unexpected message %s while awaiting piece", msg.ID)
		}
	}
}

func (s *Session) waitForUnchoke() error {
	for s.Choked {
		msg, err := s.readMessage()
		if err != nil {
			return err
		}
		if msg == nil {
			continue
		}
		switch msg.ID {
		case message.Unchoke:
			s.Choked = false
		case message.Choke:
			s.Choked = true
		case message.Have:
			if idx, err := message.ParseHave(msg); err == nil {
				s.Bitfield.SetPiece(idx)
			}
		}
	}
	return nil
}

// SendHave announces that we now hold piece index. It is a courtesy
// to the swarm, not upload service: this client never answers a peer's
// Request with a Piece of its own (seeding is out of scope).
func (s *Session) SendHave(index int) error {
	return s.send(message.NewHave(index))
}

func (s *Session) send(msg *message.Message) error {
	if err := s.Conn.SetWriteDeadline(time.Now().Add(defaultTimeout)); err != nil {
		return bterr.Wrap(bterr.Io, err, "set write deadline")
	}
	defer s.Conn.SetWriteDeadline(time.Time{})

	if _, err := s.Conn.Write(msg.Serialize()); err != nil {
		s.State = Closed
		return bterr.Wrap(bterr.Peer, err, "write message")
	}
	return nil
}

func (s *Session) readMessage() (*message.Message, error) {
	if err := s.Conn.SetReadDeadline(time.Now().Add(defaultTimeout)); err != nil {
		return nil, bterr.Wrap(bterr.Io, err, "set read deadline")
	}
	defer s.Conn.SetReadDeadline(time.Time{})

	msg, err := message.Read(s.Conn)
	if err != nil {
		s.State = Closed
		return nil, err
	}
	return msg, nil
}
