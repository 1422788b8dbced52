// Package torrent projects a decoded bencode tree into the typed
// metainfo fields a single-file torrent needs, and drives the tracker
// announce that turns an info-hash into a peer list.
package torrent

import (
	"crypto/sha1"
	"fmt"
	"io"
	"strconv"

	"github.com/StupidAfCoder/gorent/bencode"
	"github.com/StupidAfCoder/gorent/internal/bterr"
	"github.com/StupidAfCoder/gorent/peer"
)

const hashSize = 20

// Info holds the typed `info` sub-dictionary of a metainfo file.
type Info struct {
	Name        string
	Length      int64
	PieceLength int64
	Pieces      [][hashSize]byte
}

// TorrentFile is the immutable, typed projection of a .torrent file.
// InfoHash is computed from the canonical re-encoding of the info
// dict (see infoHash), never from a slice into the source file.
type TorrentFile struct {
	Announce string
	Info     Info
	InfoHash [hashSize]byte
}

// Open decodes r as a bencoded metainfo file and projects it into a
// TorrentFile. Any missing or mistyped field yields a
// bterr.Format(metainfo-schema) error.
func Open(r io.Reader) (*TorrentFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, bterr.Wrap(bterr.Io, err, "read torrent file")
	}

	root, _, err := bencode.Decode(data)
	if err != nil {
		return nil, bterr.Wrap(bterr.Format, err, "decode metainfo")
	}

	if root.Kind != bencode.Dict {
		return nil, bterr.New(bterr.Format, "metainfo-schema: top level is not a dict")
	}

	announceVal, ok := root.Dict["announce"]
	if !ok || announceVal.Kind != bencode.ByteString {
		return nil, bterr.New(bterr.Format, "metainfo-schema: missing or malformed announce")
	}

	infoVal, ok := root.Dict["info"]
	if !ok || infoVal.Kind != bencode.Dict {
		return nil, bterr.New(bterr.Format, "metainfo-schema: missing or malformed info dict")
	}

	info, err := projectInfo(infoVal)
	if err != nil {
		return nil, err
	}

	return &TorrentFile{
		Announce: string(announceVal.Str),
		Info:     info,
		InfoHash: infoHash(infoVal),
	}, nil
}

func projectInfo(infoVal bencode.Value) (Info, error) {
	nameVal, ok := infoVal.Dict["name"]
	if !ok || nameVal.Kind != bencode.ByteString {
		return Info{}, bterr.New(bterr.Format, "metainfo-schema: missing or malformed info.name")
	}

	lengthVal, ok := infoVal.Dict["length"]
	if !ok || lengthVal.Kind != bencode.Integer || lengthVal.Int <= 0 {
		return Info{}, bterr.New(bterr.Format, "metainfo-schema: missing or malformed info.length")
	}

	pieceLengthVal, ok := infoVal.Dict["piece length"]
	if !ok || pieceLengthVal.Kind != bencode.Integer || pieceLengthVal.Int <= 0 {
		return Info{}, bterr.New(bterr.Format, "metainfo-schema: missing or malformed info.piece length")
	}

	piecesVal, ok := infoVal.Dict["pieces"]
	if !ok || piecesVal.Kind != bencode.ByteString {
		return Info{}, bterr.New(bterr.Format, "metainfo-schema: missing or malformed info.pieces")
	}
	if len(piecesVal.Str)%hashSize != 0 {
		return Info{}, bterr.New(bterr.Format, "metainfo-schema: info.pieces length %d is not a multiple of %d", len(piecesVal.Str), hashSize)
	}

	numPieces := len(piecesVal.Str) / hashSize
	pieces := make([][hashSize]byte, numPieces)
	for i := 0; i < numPieces; i++ {
		copy(pieces[i][:], piecesVal.Str[i*hashSize:(i+1)*hashSize])
	}

	return Info{
		Name:        string(nameVal.Str),
		Length:      lengthVal.Int,
		PieceLength: pieceLengthVal.Int,
		Pieces:      pieces,
	}, nil
}

// infoHash computes the SHA-1 of the canonical re-encoding of the
// decoded info dict. This is the critical step from the design: the
// hash MUST come from Encode(decode(info)), never from a byte slice
// into the original file, or it would silently diverge the moment a
// producer's info dict isn't already in canonical form.
func infoHash(infoVal bencode.Value) [hashSize]byte {
	return sha1.Sum(bencode.Encode(infoVal))
}

// NumPieces returns the number of piece hashes in info.pieces. For a
// well-formed metainfo that is ceil(length / piece_length); Open does
// not check that the two agree.
func (t *TorrentFile) NumPieces() int {
	return len(t.Info.Pieces)
}

// PieceLength returns piece_size_i = min(piece_length, length - i*piece_length).
func (t *TorrentFile) PieceLength(index int) int64 {
	begin := int64(index) * t.Info.PieceLength
	end := begin + t.Info.PieceLength
	if end > t.Info.Length {
		end = t.Info.Length
	}
	return end - begin
}

func percentEncode(b []byte) string {
	const hex = "0123456789ABCDEF"
	out := make([]byte, 0, len(b)*3)
	for _, v := range b {
		out = append(out, '%', hex[v>>4], hex[v&0xf])
	}
	return string(out)
}

// buildTrackerURL builds the tracker GET request described in the
// tracker client design: every byte of info_hash and peer_id is
// percent-encoded, with no "+"-for-space shorthand, so url.Values
// (which would use it) can't be used for those two parameters.
func (t *TorrentFile) buildTrackerURL(peerID [hashSize]byte, port uint16) string {
	query := fmt.Sprintf(
		"info_hash=%s&peer_id=%s&port=%s&uploaded=0&downloaded=0&left=%s&compact=1",
		percentEncode(t.InfoHash[:]),
		percentEncode(peerID[:]),
		strconv.Itoa(int(port)),
		strconv.FormatInt(t.Info.Length, 10),
	)
	return t.Announce + "?" + query
}

// trackerResponse is the projected bencode schema of a tracker
// announce reply.
type trackerResponse struct {
	Peers string
}

func decodeTrackerResponse(body []byte) (trackerResponse, error) {
	root, _, err := bencode.Decode(body)
	if err != nil {
		return trackerResponse{}, bterr.Wrap(bterr.Tracker, err, "decode tracker response")
	}
	if root.Kind != bencode.Dict {
		return trackerResponse{}, bterr.New(bterr.Tracker, "tracker response is not a dict")
	}
	if failureVal, ok := root.Dict["failure reason"]; ok && failureVal.Kind == bencode.ByteString {
		return trackerResponse{}, bterr.New(bterr.Tracker, "tracker returned a failure reason: %s", string(failureVal.Str))
	}
	peersVal, ok := root.Dict["peers"]
	if !ok || peersVal.Kind != bencode.ByteString {
		return trackerResponse{}, bterr.New(bterr.Tracker, "tracker response missing peers")
	}
	if len(peersVal.Str)%6 != 0 {
		return trackerResponse{}, bterr.New(bterr.Tracker, "tracker peers blob length %d is not a multiple of 6", len(peersVal.Str))
	}
	return trackerResponse{Peers: string(peersVal.Str)}, nil
}

// httpGetter abstracts the tracker HTTP round trip so tests can stub
// it without a real network call.
type httpGetter func(url string) (body []byte, status int, err error)

// RequestPeers announces to the tracker and returns the compact peer
// list it replies with. Failure modes map onto bterr.Tracker: a
// non-2xx response, a malformed body, or an empty peer list.
func (t *TorrentFile) RequestPeers(peerID [hashSize]byte, port uint16) ([]peer.Peer, error) {
	return t.requestPeersWith(peerID, port, defaultHTTPGet)
}

func (t *TorrentFile) requestPeersWith(peerID [hashSize]byte, port uint16, get httpGetter) ([]peer.Peer, error) {
	urle := t.buildTrackerURL(peerID, port)

	body, status, err := get(urle)
	if err != nil {
		return nil, bterr.Wrap(bterr.Tracker, err, "announce request")
	}
	if status < 200 || status >= 300 {
		return nil, bterr.New(bterr.Tracker, "announce returned HTTP %d", status)
	}

	resp, err := decodeTrackerResponse(body)
	if err != nil {
		return nil, err
	}

	peers, err := peer.Unmarshal([]byte(resp.Peers))
	if err != nil {
		return nil, bterr.Wrap(bterr.Tracker, err, "decode compact peer list")
	}
	if len(peers) == 0 {
		return nil, bterr.New(bterr.Tracker, "tracker returned no peers")
	}
	return peers, nil
}
