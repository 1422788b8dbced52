package bencode

import (
	"github.com/StupidAfCoder/gorent/internal/bterr"
)

// Decode parses one bencoded value starting at the beginning of b and
// returns it along with the offset one past the last byte it
// consumed. Trailing bytes in b are not an error — callers that need
// the whole input consumed check the returned offset themselves.
func Decode(b []byte) (Value, int, error) {
	d := &decoder{b: b}
	v, err := d.value()
	if err != nil {
		return Value{}, d.pos, err
	}
	return v, d.pos, nil
}

type decoder struct {
	b   []byte
	pos int
}

func (d *decoder) peek() (byte, bool) {
	if d.pos >= len(d.b) {
		return 0, false
	}
	return d.b[d.pos], true
}

func (d *decoder) value() (Value, error) {
	c, ok := d.peek()
	if !ok {
		return Value{}, bterr.New(bterr.Format, "truncated: expected a value")
	}
	switch {
	case c == 'i':
		return d.integer()
	case c == 'l':
		return d.list()
	case c == 'd':
		return d.dict()
	case c >= '0' && c <= '9':
		return d.byteString()
	default:
		return Value{}, bterr.New(bterr.Format, "unexpected character %q at offset %d", c, d.pos)
	}
}

func (d *decoder) integer() (Value, error) {
	d.pos++ // 'i'
	start := d.pos
	neg := false
	if c, ok := d.peek(); ok && c == '-' {
		neg = true
		d.pos++
	}
	digitsStart := d.pos
	for {
		c, ok := d.peek()
		if !ok {
			return Value{}, bterr.New(bterr.Format, "truncated: integer")
		}
		if c < '0' || c > '9' {
			break
		}
		d.pos++
	}
	digits := d.b[digitsStart:d.pos]
	if len(digits) == 0 {
		return Value{}, bterr.New(bterr.Format, "malformed integer at offset %d", start)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return Value{}, bterr.New(bterr.Format, "integer has a leading zero at offset %d", start)
	}
	if neg && digits[0] == '0' {
		return Value{}, bterr.New(bterr.Format, "negative zero is forbidden at offset %d", start)
	}
	c, ok := d.peek()
	if !ok || c != 'e' {
		return Value{}, bterr.New(bterr.Format, "truncated: integer missing terminator")
	}
	d.pos++ // 'e'

	n, err := parseInt64(digits, neg)
	if err != nil {
		return Value{}, bterr.Wrap(bterr.Format, err, "integer overflow")
	}
	return NewInteger(n), nil
}

const (
	maxPositive uint64 = 1<<63 - 1 // math.MaxInt64
	maxNegative uint64 = 1 << 63   // -math.MinInt64
)

func parseInt64(digits []byte, neg bool) (int64, error) {
	limit := maxPositive
	if neg {
		limit = maxNegative
	}
	var n uint64
	for _, c := range digits {
		digit := uint64(c - '0')
		if n > (limit-digit)/10 {
			return 0, bterr.New(bterr.Format, "overflow")
		}
		n = n*10 + digit
	}
	if neg {
		return -int64(n), nil
	}
	return int64(n), nil
}

func (d *decoder) byteString() (Value, error) {
	lenStart := d.pos
	for {
		c, ok := d.peek()
		if !ok {
			return Value{}, bterr.New(bterr.Format, "truncated: string length")
		}
		if c == ':' {
			break
		}
		if c < '0' || c > '9' {
			return Value{}, bterr.New(bterr.Format, "malformed string length at offset %d", lenStart)
		}
		d.pos++
	}
	digits := d.b[lenStart:d.pos]
	if len(digits) > 1 && digits[0] == '0' {
		return Value{}, bterr.New(bterr.Format, "string length has a leading zero at offset %d", lenStart)
	}
	length, err := parseInt64(digits, false)
	if err != nil {
		return Value{}, bterr.Wrap(bterr.Format, err, "string length overflow")
	}
	d.pos++ // ':'
	if int64(len(d.b)-d.pos) < length {
		return Value{}, bterr.New(bterr.Format, "truncated: string body")
	}
	raw := d.b[d.pos : d.pos+int(length)]
	d.pos += int(length)
	return NewByteString(raw), nil
}

func (d *decoder) list() (Value, error) {
	d.pos++ // 'l'
	var items []Value
	for {
		c, ok := d.peek()
		if !ok {
			return Value{}, bterr.New(bterr.Format, "truncated: list")
		}
		if c == 'e' {
			d.pos++
			break
		}
		v, err := d.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return NewList(items), nil
}

func (d *decoder) dict() (Value, error) {
	d.pos++ // 'd'
	entries := map[string]Value{}
	for {
		c, ok := d.peek()
		if !ok {
			return Value{}, bterr.New(bterr.Format, "truncated: dict")
		}
		if c == 'e' {
			d.pos++
			break
		}
		if c < '0' || c > '9' {
			return Value{}, bterr.New(bterr.Format, "dict key must be a bencode string at offset %d", d.pos)
		}
		keyVal, err := d.byteString()
		if err != nil {
			return Value{}, err
		}
		key := string(keyVal.Str)
		if _, dup := entries[key]; dup {
			return Value{}, bterr.New(bterr.Format, "duplicate dict key %q", key)
		}
		v, err := d.value()
		if err != nil {
			return Value{}, err
		}
		entries[key] = v
	}
	// Decoding is permissive about out-of-order keys; the encoder
	// always re-sorts, so this never affects the info-hash.
	return NewDict(entries), nil
}
