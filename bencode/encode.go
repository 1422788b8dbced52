package bencode

import (
	"fmt"
	"sort"
	"strconv"
)

// Encode renders v in canonical bencode form: dict keys ascending by
// raw bytes, integers with no leading zeros (the literal "0" aside)
// and no negative zero, byte strings as <len>:<bytes> with no
// escaping. Encode(Decode(b)) == b for any canonical b, and the
// converse holds whenever v's dicts are already key-sorted — see
// torrent.infoHash for why that round trip matters.
func Encode(v Value) []byte {
	var buf []byte
	return appendValue(buf, v)
}

func appendValue(buf []byte, v Value) []byte {
	switch v.Kind {
	case ByteString:
		return appendByteString(buf, v.Str)
	case Integer:
		buf = append(buf, 'i')
		buf = strconv.AppendInt(buf, v.Int, 10)
		buf = append(buf, 'e')
		return buf
	case List:
		buf = append(buf, 'l')
		for _, item := range v.List {
			buf = appendValue(buf, item)
		}
		buf = append(buf, 'e')
		return buf
	case Dict:
		buf = append(buf, 'd')
		keys := make([]string, 0, len(v.Dict))
		for k := range v.Dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buf = appendByteString(buf, []byte(k))
			buf = appendValue(buf, v.Dict[k])
		}
		buf = append(buf, 'e')
		return buf
	default:
		panic(fmt.Sprintf("bencode: unknown Kind %d", v.Kind))
	}
}

func appendByteString(buf []byte, s []byte) []byte {
	buf = strconv.AppendInt(buf, int64(len(s)), 10)
	buf = append(buf, ':')
	buf = append(buf, s...)
	return buf
}
