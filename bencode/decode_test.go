package bencode

import (
	"testing"

	"github.com/StupidAfCoder/gorent/internal/bterr"
	"github.com/stretchr/testify/require"
)

func TestDecodeByteString(t *testing.T) {
	v, n, err := Decode([]byte("5:hello"))
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, ByteString, v.Kind)
	require.Equal(t, "hello", string(v.Str))
}

func TestDecodeLongString(t *testing.T) {
	v, _, err := Decode([]byte("11:hello world"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(v.Str))
}

func TestDecodePositiveInteger(t *testing.T) {
	v, _, err := Decode([]byte("i123e"))
	require.NoError(t, err)
	require.Equal(t, Integer, v.Kind)
	require.Equal(t, int64(123), v.Int)
}

func TestDecodeNegativeInteger(t *testing.T) {
	v, _, err := Decode([]byte("i-123e"))
	require.NoError(t, err)
	require.Equal(t, int64(-123), v.Int)
}

func TestDecodeZero(t *testing.T) {
	v, _, err := Decode([]byte("i0e"))
	require.NoError(t, err)
	require.Equal(t, int64(0), v.Int)
}

func TestDecodeRejectsNegativeZero(t *testing.T) {
	_, _, err := Decode([]byte("i-0e"))
	require.Error(t, err)
	kind, ok := bterr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bterr.Format, kind)
}

func TestDecodeRejectsLeadingZero(t *testing.T) {
	_, _, err := Decode([]byte("i03e"))
	require.Error(t, err)
}

func TestDecodeSimpleList(t *testing.T) {
	v, _, err := Decode([]byte("l4:spam4:eggse"))
	require.NoError(t, err)
	require.Equal(t, List, v.Kind)
	require.Len(t, v.List, 2)
	require.Equal(t, "spam", string(v.List[0].Str))
	require.Equal(t, "eggs", string(v.List[1].Str))
}

func TestDecodeMultiTypeList(t *testing.T) {
	v, _, err := Decode([]byte("li123e5:helloe"))
	require.NoError(t, err)
	require.Equal(t, int64(123), v.List[0].Int)
	require.Equal(t, "hello", string(v.List[1].Str))
}

func TestDecodeListInsideList(t *testing.T) {
	v, _, err := Decode([]byte("lli467e9:blueberryee"))
	require.NoError(t, err)
	require.Len(t, v.List, 1)
	inner := v.List[0]
	require.Equal(t, int64(467), inner.List[0].Int)
	require.Equal(t, "blueberry", string(inner.List[1].Str))
}

func TestDecodeDict(t *testing.T) {
	v, _, err := Decode([]byte("d3:foo3:bar5:helloi52ee"))
	require.NoError(t, err)
	require.Equal(t, Dict, v.Kind)
	require.Equal(t, "bar", string(v.Dict["foo"].Str))
	require.Equal(t, int64(52), v.Dict["hello"].Int)
}

func TestDecodeDictRejectsDuplicateKeys(t *testing.T) {
	_, _, err := Decode([]byte("d3:foo3:bar3:foo3:bazie"))
	require.Error(t, err)
	kind, ok := bterr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bterr.Format, kind)
}

func TestDecodeDictAcceptsOutOfOrderKeys(t *testing.T) {
	// Permissive on decode: keys need not already be sorted, even
	// though the encoder always re-emits them sorted.
	v, _, err := Decode([]byte("d3:zzzi1e3:aaai2ee"))
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Dict["zzz"].Int)
	require.Equal(t, int64(2), v.Dict["aaa"].Int)
	require.Equal(t, []byte("d3:aaai2e3:zzzi1ee"), Encode(v))
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode([]byte("5:hel"))
	require.Error(t, err)
	kind, ok := bterr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bterr.Format, kind)
}

func TestDecodeOverflow(t *testing.T) {
	_, _, err := Decode([]byte("i99999999999999999999999999e"))
	require.Error(t, err)
	kind, ok := bterr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bterr.Format, kind)
}

func TestDecodeNonUTF8ByteStringPreservesRawBytes(t *testing.T) {
	raw := []byte{0x04, 0x00, 0xff, 0xfe}
	input := append([]byte("4:"), raw...)
	v, _, err := Decode(input)
	require.NoError(t, err)
	require.Equal(t, raw, v.Str)
}

func TestRoundTripProperty(t *testing.T) {
	cases := [][]byte{
		[]byte("5:hello"),
		[]byte("i0e"),
		[]byte("i-9223372036854775808e"),
		[]byte("i9223372036854775807e"),
		[]byte("le"),
		[]byte("de"),
		[]byte("l4:spam4:eggse"),
		[]byte("d3:bar4:spam3:fooi42ee"),
		[]byte("lli467e9:blueberryee"),
	}
	for _, b := range cases {
		v, n, err := Decode(b)
		require.NoError(t, err)
		require.Equal(t, len(b), n)
		require.Equal(t, b, Encode(v))
	}
}
