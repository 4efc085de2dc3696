package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsLittleEndian(t *testing.T) {
	require.True(t, IsLittleEndian)
}

func TestEncodeDecodeUint64sLittleEndianArch(t *testing.T) {
	testEncodeDecodeUint64s(t, 0, 1, math.MaxUint64, 12345678)
}

func TestEncodeDecodeUint64sBigEndianArch(t *testing.T) {
	IsLittleEndian = false
	defer func() {
		IsLittleEndian = true
	}()
	testEncodeDecodeUint64s(t, 0, 1, math.MaxUint64, 12345678)
}

func testEncodeDecodeUint64s(t *testing.T, vals ...uint64) {
	t.Helper()
	for _, val := range vals {
		buff := AppendUint64ToBufferLE(nil, val)
		valRead, off := ReadUint64FromBufferLE(buff, 0)
		require.Equal(t, val, valRead)
		require.Equal(t, 8, off)
	}
}

func TestEncodeDecodeUint32s(t *testing.T) {
	for _, val := range []uint32{0, 1, math.MaxUint32, 12345678} {
		buff := AppendUint32ToBufferLE([]byte{7}, val)
		valRead, off := ReadUint32FromBufferLE(buff, 1)
		require.Equal(t, val, valRead)
		require.Equal(t, 5, off)
	}
}

func TestEncodeDecodeFloats(t *testing.T) {
	buff := AppendFloat64ToBufferLE(nil, -1234.5678)
	buff = AppendFloat32ToBufferLE(buff, math.MaxFloat32)
	f64, off := ReadFloat64FromBufferLE(buff, 0)
	require.Equal(t, -1234.5678, f64)
	f32, off := ReadFloat32FromBufferLE(buff, off)
	require.Equal(t, float32(math.MaxFloat32), f32)
	require.Equal(t, 12, off)
}

func TestEncodeDecodeStringAndBytes(t *testing.T) {
	buff := AppendStringToBufferLE(nil, "⌘zx")
	buff = AppendBytesToBufferLE(buff, []byte{1, 2, 3})
	buff = AppendStringToBufferLE(buff, "")
	s, off := ReadStringFromBufferLE(buff, 0)
	require.Equal(t, "⌘zx", s)
	b, off := ReadBytesFromBufferLE(buff, off)
	require.Equal(t, []byte{1, 2, 3}, b)
	s, off = ReadStringFromBufferLE(buff, off)
	require.Equal(t, "", s)
	require.Equal(t, len(buff), off)
}

func TestBigEndianKeyOrdering(t *testing.T) {
	k1 := AppendUint64ToBufferBE(nil, 255)
	k2 := AppendUint64ToBufferBE(nil, 256)
	require.Equal(t, -1, compareBytes(k1, k2))
	v, _ := ReadUint64FromBufferBE(k2, 0)
	require.Equal(t, uint64(256), v)
}

func TestIncrementBytesBigEndian(t *testing.T) {
	require.Equal(t, []byte{0, 2}, IncrementBytesBigEndian([]byte{0, 1}))
	require.Equal(t, []byte{1, 0, 0}, IncrementBytesBigEndian([]byte{0, 255, 255}))
	require.Panics(t, func() {
		IncrementBytesBigEndian([]byte{255})
	})
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
