package bencode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeByteString(t *testing.T) {
	require.Equal(t, []byte("4:spam"), Encode(NewByteString([]byte("spam"))))
}

func TestEncodeInteger(t *testing.T) {
	require.Equal(t, []byte("i42e"), Encode(NewInteger(42)))
	require.Equal(t, []byte("i0e"), Encode(NewInteger(0)))
	require.Equal(t, []byte("i-42e"), Encode(NewInteger(-42)))
}

func TestEncodeList(t *testing.T) {
	v := NewList([]Value{NewByteString([]byte("spam")), NewByteString([]byte("eggs"))})
	require.Equal(t, []byte("l4:spam4:eggse"), Encode(v))
}

func TestEncodeDictSortsKeys(t *testing.T) {
	v := NewDict(map[string]Value{
		"hello": NewInteger(52),
		"foo":   NewByteString([]byte("bar")),
	})
	require.Equal(t, []byte("d3:foo3:bar5:helloi52ee"), Encode(v))
}

func TestEncodeEmptyListAndDict(t *testing.T) {
	require.Equal(t, []byte("le"), Encode(NewList(nil)))
	require.Equal(t, []byte("de"), Encode(NewDict(nil)))
}
