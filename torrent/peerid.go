package torrent

import "github.com/google/uuid"

// peerIDPrefix is the Azureus-style client identifier: "GR" for this
// client, version "0001".
const peerIDPrefix = "-GR0001-"

// GeneratePeerID produces a 20-byte Azureus-style peer-id: an 8-byte
// client/version prefix followed by 12 bytes of entropy. The teacher
// hardcoded the trailing 12 bytes, which makes two concurrent runs of
// the client announce with the same peer-id to the same tracker; this
// fills them from a freshly generated UUID's raw bytes instead.
func GeneratePeerID() [hashSize]byte {
	var id [hashSize]byte
	copy(id[:], peerIDPrefix)
	u := uuid.New()
	copy(id[len(peerIDPrefix):], u[:])
	return id
}
