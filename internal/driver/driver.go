// Package driver owns the output file and loops piece downloads over
// a single peer session, writing each verified piece at its offset.
package driver

import (
	"os"

	"github.com/StupidAfCoder/gorent/internal/bterr"
	"github.com/StupidAfCoder/gorent/internal/logging"
	"github.com/StupidAfCoder/gorent/peer"
	"github.com/StupidAfCoder/gorent/session"
	"github.com/StupidAfCoder/gorent/torrent"
)

// Open dials the first usable peer and drives it through handshake,
// bitfield and interested/unchoke, returning a ready-to-download
// session. It tries peers in order and returns the first one that
// completes the handshake — the design downloads sequentially from a
// single peer, not a swarm.
func Open(tf *torrent.TorrentFile, peers []peer.Peer, ourPeerID [20]byte) (*session.Session, error) {
	if len(peers) == 0 {
		return nil, bterr.New(bterr.Peer, "no peers to connect to")
	}

	var lastErr error
	for _, p := range peers {
		s, err := session.Dial(p, ourPeerID, tf.InfoHash)
		if err != nil {
			logging.Log().WithField("peer", p.String()).WithError(err).Debug("peer dial/handshake failed")
			lastErr = err
			continue
		}
		if err := s.BecomeInterested(); err != nil {
			s.Close()
			lastErr = err
			continue
		}
		return s, nil
	}
	return nil, bterr.Wrap(bterr.Peer, lastErr, "no peer completed the handshake")
}

// DownloadPiece downloads a single piece through s and writes it at
// its offset in out.
func DownloadPiece(s *session.Session, tf *torrent.TorrentFile, out *os.File, index int) error {
	length := tf.PieceLength(index)
	buf, err := s.DownloadPiece(index, length, tf.Info.Pieces[index])
	if err != nil {
		return err
	}
	offset := int64(index) * tf.Info.PieceLength
	if _, err := out.WriteAt(buf, offset); err != nil {
		return bterr.Wrapf(bterr.Io, err, "write piece %d", index)
	}
	s.SendHave(index)
	return nil
}

// DownloadAll downloads every piece of tf through s, sequentially and
// in order, writing each to out as it completes.
func DownloadAll(s *session.Session, tf *torrent.TorrentFile, out *os.File) error {
	for i := 0; i < tf.NumPieces(); i++ {
		if err := DownloadPiece(s, tf, out, i); err != nil {
			return err
		}
		logging.Log().WithField("piece", i).Debug("piece downloaded")
	}
	return nil
}
