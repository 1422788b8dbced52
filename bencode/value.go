// Package bencode implements the BitTorrent bencode wire encoding: a
// tagged value tree (ByteString, Integer, List, Dict), a permissive
// decoder and a canonical, deterministic encoder. The encoder's
// canonical form is what makes the metainfo info-hash reproducible
// across decode/encode cycles (see torrent.TorrentFile).
package bencode

// Kind tags which variant a Value holds. Values are a closed sum type:
// callers switch on Kind rather than type-asserting a class hierarchy.
type Kind int

const (
	ByteString Kind = iota
	Integer
	List
	Dict
)

// Value is a tagged bencode value. Only the field matching Kind is
// meaningful; the others are left zero.
//
// ByteString is always raw bytes, never text — decoding never
// attempts UTF-8 interpretation. Dict keys are stored as Go strings
// purely as a map key convenience; a dict key is itself conceptually
// a ByteString and may hold non-UTF-8 bytes, since Go strings are
// just byte sequences.
type Value struct {
	Kind Kind
	Str  []byte
	Int  int64
	List []Value
	Dict map[string]Value
}

func NewByteString(b []byte) Value { return Value{Kind: ByteString, Str: b} }
func NewInteger(i int64) Value     { return Value{Kind: Integer, Int: i} }
func NewList(l []Value) Value      { return Value{Kind: List, List: l} }
func NewDict(d map[string]Value) Value {
	if d == nil {
		d = map[string]Value{}
	}
	return Value{Kind: Dict, Dict: d}
}
