package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressSpaceLoadStoreRoundTrip(t *testing.T) {
	a := newAddressSpace(16)
	a.setData(make([]byte, 16))

	for _, width := range []uint64{1, 2, 4, 8} {
		t.Run("", func(t *testing.T) {
			require.NoError(t, a.Store(0, width, 0xDEADBEEFCAFEBABE))
			v, err := a.Load(0, width)
			require.NoError(t, err)
			mask := ^uint64(0) >> (64 - width*8)
			require.Equal(t, uint64(0xDEADBEEFCAFEBABE)&mask, v)
		})
	}
}

func TestAddressSpaceDataThenStack(t *testing.T) {
	a := newAddressSpace(8)
	a.setData(make([]byte, 8))

	require.NoError(t, a.Store(0, 4, 0x11223344))
	require.NoError(t, a.Store(8, 4, 0x55667788))

	v, err := a.Load(0, 4)
	require.NoError(t, err)
	require.EqualValues(t, 0x11223344, v)

	v, err = a.Load(8, 4)
	require.NoError(t, err)
	require.EqualValues(t, 0x55667788, v)
}

func TestAddressSpaceOutOfBounds(t *testing.T) {
	a := newAddressSpace(8)
	a.setData(make([]byte, 8))

	_, err := a.Load(16, 1)
	require.Error(t, err)
	require.IsType(t, &ErrOutOfBounds{}, err)
}

func TestAddressSpaceStraddleSeamFails(t *testing.T) {
	a := newAddressSpace(8)
	a.setData(make([]byte, 8))

	// [4, 12) straddles the data/stack boundary at 8, even though
	// 4+8 == 12 <= totalLen (16).
	_, err := a.Load(4, 8)
	require.Error(t, err)
	require.IsType(t, &ErrOutOfBounds{}, err)
}

func TestAddressSpaceOverflowingAddress(t *testing.T) {
	a := newAddressSpace(8)
	a.setData(make([]byte, 8))

	_, err := a.Load(^uint64(0)-2, 8)
	require.Error(t, err)
}

func TestSignExtend(t *testing.T) {
	require.EqualValues(t, uint64(0xFFFFFFFFFFFFFFFF), signExtend(0xFF, 7))
	require.EqualValues(t, 0x7F, signExtend(0x7F, 7))
	require.EqualValues(t, uint64(0xFFFFFFFFFFFFFFFF), mask32(0xFFFFFFFF))
	require.EqualValues(t, 1, mask32(1))
}

func TestMulHigh64(t *testing.T) {
	// -1 * 2 signed: full 128-bit product is -2, high 64 bits all ones.
	require.EqualValues(t, uint64(0xFFFFFFFFFFFFFFFF), mulHigh64(^uint64(0), 2, true, true))
	// -1 (as unsigned max) * 2 unsigned: low 64 wraps, high is 1.
	require.EqualValues(t, 1, mulHigh64(^uint64(0), 2, false, false))
}
