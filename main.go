// Command gorent is the CLI surface over the bencode codec, metainfo
// projection, tracker client and peer session state machine: decode,
// info, peers, handshake, download_piece and download.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/StupidAfCoder/gorent/bencode"
	"github.com/StupidAfCoder/gorent/internal/bterr"
	"github.com/StupidAfCoder/gorent/internal/driver"
	"github.com/StupidAfCoder/gorent/internal/logging"
	"github.com/StupidAfCoder/gorent/peer"
	"github.com/StupidAfCoder/gorent/session"
	"github.com/StupidAfCoder/gorent/torrent"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gorent <decode|info|peers|handshake|download_piece|download> ...")
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "decode":
		err = runDecode(args)
	case "info":
		err = runInfo(args)
	case "peers":
		err = runPeers(args)
	case "handshake":
		err = runHandshake(args)
	case "download_piece":
		err = runDownloadPiece(args)
	case "download":
		err = runDownload(args)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		reportAndExit(err)
	}
}

// reportAndExit writes a short diagnostic to stderr and exits non-zero
// for any error kind. No partial-output guarantees are made: a failed
// download may leave a truncated file behind.
func reportAndExit(err error) {
	if kind, ok := bterr.KindOf(err); ok {
		fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.SetVerbose(*verbose)
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: decode <bencoded-string>")
	}

	v, _, err := bencode.Decode([]byte(rest[0]))
	if err != nil {
		return bterr.Wrap(bterr.Format, err, "decode")
	}
	fmt.Println(bencode.Render(v))
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.SetVerbose(*verbose)
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: info <path>")
	}

	tf, err := openTorrent(rest[0])
	if err != nil {
		return err
	}

	fmt.Printf("Tracker URL: %s\n", tf.Announce)
	fmt.Printf("Length: %d\n", tf.Info.Length)
	fmt.Printf("Info Hash: %x\n", tf.InfoHash)
	fmt.Printf("Piece Length: %d\n", tf.Info.PieceLength)
	fmt.Println("Piece Hashes:")
	for _, h := range tf.Info.Pieces {
		fmt.Printf("%x\n", h)
	}
	return nil
}

func runPeers(args []string) error {
	fs := flag.NewFlagSet("peers", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.SetVerbose(*verbose)
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: peers <path>")
	}

	tf, err := openTorrent(rest[0])
	if err != nil {
		return err
	}

	peerID := torrent.GeneratePeerID()
	peers, err := tf.RequestPeers(peerID, 6881)
	if err != nil {
		return err
	}
	for _, p := range peers {
		fmt.Println(p.String())
	}
	return nil
}

func runHandshake(args []string) error {
	fs := flag.NewFlagSet("handshake", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.SetVerbose(*verbose)
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: handshake <path> <ip:port>")
	}

	tf, err := openTorrent(rest[0])
	if err != nil {
		return err
	}

	conn, err := net.DialTimeout("tcp", rest[1], handshakeDialTimeout)
	if err != nil {
		return bterr.Wrap(bterr.Peer, err, "dial peer")
	}
	defer conn.Close()

	peerID := torrent.GeneratePeerID()
	remoteID, err := peer.DoHandshake(conn, tf.InfoHash, peerID)
	if err != nil {
		return err
	}

	fmt.Printf("Peer ID: %x\n", remoteID)
	return nil
}

func runDownloadPiece(args []string) error {
	fs := flag.NewFlagSet("download_piece", flag.ContinueOnError)
	out := fs.String("o", "", "output path")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.SetVerbose(*verbose)
	rest := fs.Args()
	if *out == "" || len(rest) != 2 {
		return fmt.Errorf("usage: download_piece -o <out> <path> <index>")
	}

	index, err := strconv.Atoi(rest[1])
	if err != nil {
		return bterr.Wrap(bterr.Format, err, "parse piece index")
	}

	tf, err := openTorrent(rest[0])
	if err != nil {
		return err
	}
	if index < 0 || index >= tf.NumPieces() {
		return bterr.New(bterr.Format, "piece index %d out of range [0,%d)", index, tf.NumPieces())
	}

	s, err := dialFirstPeer(tf)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := os.Create(*out)
	if err != nil {
		return bterr.Wrap(bterr.Io, err, "create output file")
	}
	defer f.Close()

	if err := driver.DownloadPiece(s, tf, f, index); err != nil {
		return err
	}

	fmt.Printf("Piece %d downloaded to %s.\n", index, *out)
	return nil
}

func runDownload(args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	out := fs.String("o", "", "output path")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logging.SetVerbose(*verbose)
	rest := fs.Args()
	if *out == "" || len(rest) != 1 {
		return fmt.Errorf("usage: download -o <out> <path>")
	}

	tf, err := openTorrent(rest[0])
	if err != nil {
		return err
	}

	s, err := dialFirstPeer(tf)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := os.Create(*out)
	if err != nil {
		return bterr.Wrap(bterr.Io, err, "create output file")
	}
	defer f.Close()

	if err := driver.DownloadAll(s, tf, f); err != nil {
		return err
	}

	fmt.Printf("Downloaded %s to %s.\n", rest[0], *out)
	return nil
}

const handshakeDialTimeout = 30 * time.Second

func openTorrent(path string) (*torrent.TorrentFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bterr.Wrap(bterr.Io, err, "open torrent file")
	}
	defer f.Close()
	return torrent.Open(f)
}

func dialFirstPeer(tf *torrent.TorrentFile) (*session.Session, error) {
	peerID := torrent.GeneratePeerID()
	peers, err := tf.RequestPeers(peerID, 6881)
	if err != nil {
		return nil, err
	}
	return driver.Open(tf, peers, peerID)
}
