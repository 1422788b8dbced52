package bencode

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Render renders v the way the `decode` CLI command prints it: a
// JSON-like text where byte strings that decode cleanly as UTF-8
// become JSON-escaped quoted strings, and byte strings that don't
// become a JSON array of their raw byte values. Integers print as
// plain decimal; lists as `[v1,v2,...]`; dicts as
// `{"k1":v1,"k2":v2,...}` with keys sorted — this is presentation
// only, never used to compute the info-hash.
func Render(v Value) string {
	var sb strings.Builder
	renderInto(&sb, v)
	return sb.String()
}

func renderInto(sb *strings.Builder, v Value) {
	switch v.Kind {
	case ByteString:
		renderByteString(sb, v.Str)
	case Integer:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case List:
		sb.WriteByte('[')
		for i, item := range v.List {
			if i > 0 {
				sb.WriteByte(',')
			}
			renderInto(sb, item)
		}
		sb.WriteByte(']')
	case Dict:
		sb.WriteByte('{')
		keys := make([]string, 0, len(v.Dict))
		for k := range v.Dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			renderByteString(sb, []byte(k))
			sb.WriteByte(':')
			renderInto(sb, v.Dict[k])
		}
		sb.WriteByte('}')
	}
}

func renderByteString(sb *strings.Builder, raw []byte) {
	if utf8.Valid(raw) {
		escaped, err := json.Marshal(string(raw))
		if err == nil {
			sb.Write(escaped)
			return
		}
	}
	sb.WriteByte('[')
	for i, b := range raw {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(b)))
	}
	sb.WriteByte(']')
}
