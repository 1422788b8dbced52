package bitfield

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckPiece(t *testing.T) {
	bf := Bitfield{0b01010100, 0b01010100}
	require.False(t, bf.CheckPiece(0))
	require.True(t, bf.CheckPiece(1))
	require.False(t, bf.CheckPiece(2))
	require.True(t, bf.CheckPiece(3))
	require.True(t, bf.CheckPiece(9))
}

func TestSetPiece(t *testing.T) {
	bf := make(Bitfield, 2)
	bf.SetPiece(4)
	bf.SetPiece(9)
	require.True(t, bf.CheckPiece(4))
	require.True(t, bf.CheckPiece(9))
	require.False(t, bf.CheckPiece(5))
}

func TestOutOfRangeIsSafe(t *testing.T) {
	bf := make(Bitfield, 1)
	require.False(t, bf.CheckPiece(100))
	require.NotPanics(t, func() { bf.SetPiece(100) })
}
