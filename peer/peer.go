// Package peer implements the two fixed-format wire structures that
// sit below the session state machine: the compact peer-address list
// the tracker returns, and the 68-byte BitTorrent handshake.
package peer

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"strconv"

	"github.com/StupidAfCoder/gorent/internal/bterr"
)

const peerSize = 6

// Peer is an IPv4 address + TCP port, as carried by the compact
// tracker response.
type Peer struct {
	IP   net.IP
	Port uint16
}

func (p Peer) String() string {
	return net.JoinHostPort(p.IP.String(), strconv.Itoa(int(p.Port)))
}

// Unmarshal parses a compact peer blob: each 6-byte group is a
// big-endian IPv4 address followed by a big-endian port.
func Unmarshal(peersBin []byte) ([]Peer, error) {
	if len(peersBin)%peerSize != 0 {
		return nil, bterr.New(bterr.Tracker, "compact peer blob length %d is not a multiple of %d", len(peersBin), peerSize)
	}
	numPeers := len(peersBin) / peerSize
	peers := make([]Peer, numPeers)
	for i := 0; i < numPeers; i++ {
		offset := i * peerSize
		ip := make(net.IP, 4)
		copy(ip, peersBin[offset:offset+4])
		peers[i].IP = ip
		peers[i].Port = binary.BigEndian.Uint16(peersBin[offset+4 : offset+6])
	}
	return peers, nil
}

const pstr = "BitTorrent protocol"

// Handshake is the fixed frame exchanged by both sides before any
// length-prefixed message is sent.
type Handshake struct {
	Pstr     string
	InfoHash [20]byte
	PeerID   [20]byte
}

// NewHandshake builds our outbound handshake frame.
func NewHandshake(infoHash, peerID [20]byte) *Handshake {
	return &Handshake{Pstr: pstr, InfoHash: infoHash, PeerID: peerID}
}

// Serialize writes the 68-byte wire form: pstrlen, pstr, 8 zero
// reserved bytes, info_hash, peer_id.
func (h *Handshake) Serialize() []byte {
	buf := make([]byte, 0, 1+len(h.Pstr)+8+20+20)
	buf = append(buf, byte(len(h.Pstr)))
	buf = append(buf, h.Pstr...)
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, h.InfoHash[:]...)
	buf = append(buf, h.PeerID[:]...)
	return buf
}

// ReadHandshake reads exactly one handshake frame from r.
func ReadHandshake(r io.Reader) (*Handshake, error) {
	var lenBuf [1]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, bterr.Wrap(bterr.Peer, err, "read handshake pstrlen")
	}
	pstrlen := int(lenBuf[0])

	rest := make([]byte, pstrlen+48)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, bterr.Wrap(bterr.Peer, err, "read handshake body")
	}

	h := &Handshake{Pstr: string(rest[:pstrlen])}
	cursor := pstrlen + 8
	copy(h.InfoHash[:], rest[cursor:cursor+20])
	cursor += 20
	copy(h.PeerID[:], rest[cursor:cursor+20])
	return h, nil
}

// DoHandshake writes our handshake and reads the peer's, verifying
// that its info_hash matches ours. The remote peer_id is returned to
// the caller on success.
func DoHandshake(rw io.ReadWriter, infoHash, peerID [20]byte) (remotePeerID [20]byte, err error) {
	ours := NewHandshake(infoHash, peerID)
	if _, err := rw.Write(ours.Serialize()); err != nil {
		return remotePeerID, bterr.Wrap(bterr.Peer, err, "send handshake")
	}

	theirs, err := ReadHandshake(rw)
	if err != nil {
		return remotePeerID, err
	}
	if !bytes.Equal(theirs.InfoHash[:], infoHash[:]) {
		return remotePeerID, bterr.New(bterr.Peer, "info-hash-mismatch: expected %x got %x", infoHash, theirs.InfoHash)
	}
	return theirs.PeerID, nil
}
