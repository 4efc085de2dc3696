package common

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Values are encoded in little-endian order unless they are part of a key, where big-endian keeps the byte order
// the same as the numeric order.

var littleEndian = binary.LittleEndian
var bigEndian = binary.BigEndian
var IsLittleEndian = isLittleEndian()

func AppendUint32ToBufferLE(buffer []byte, v uint32) []byte {
	return append(buffer, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func AppendUint64ToBufferLE(buffer []byte, v uint64) []byte {
	return append(buffer, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32),
		byte(v>>40), byte(v>>48), byte(v>>56))
}

func AppendUint64ToBufferBE(buffer []byte, v uint64) []byte {
	return append(buffer, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func AppendFloat64ToBufferLE(buffer []byte, value float64) []byte {
	return AppendUint64ToBufferLE(buffer, math.Float64bits(value))
}

func AppendFloat32ToBufferLE(buffer []byte, value float32) []byte {
	return AppendUint32ToBufferLE(buffer, math.Float32bits(value))
}

func AppendBytesToBufferLE(buffer []byte, value []byte) []byte {
	buffer = AppendUint32ToBufferLE(buffer, uint32(len(value)))
	return append(buffer, value...)
}

func AppendStringToBufferLE(buffer []byte, value string) []byte {
	buffer = AppendUint32ToBufferLE(buffer, uint32(len(value)))
	return append(buffer, value...)
}

// PutUint16LE and friends write into a pre-sized buffer at offset, used for fixed-width vector slots.

func PutUint16LE(buffer []byte, offset int, v uint16) {
	littleEndian.PutUint16(buffer[offset:], v)
}

func PutUint32LE(buffer []byte, offset int, v uint32) {
	littleEndian.PutUint32(buffer[offset:], v)
}

func PutUint64LE(buffer []byte, offset int, v uint64) {
	littleEndian.PutUint64(buffer[offset:], v)
}

func ReadUint16FromBufferLE(buffer []byte, offset int) (uint16, int) {
	return littleEndian.Uint16(buffer[offset:]), offset + 2
}

func ReadUint32FromBufferLE(buffer []byte, offset int) (uint32, int) {
	if IsLittleEndian {
		// nolint: gosec
		return *(*uint32)(unsafe.Pointer(&buffer[offset])), offset + 4
	}
	return littleEndian.Uint32(buffer[offset:]), offset + 4
}

func ReadUint64FromBufferLE(buffer []byte, offset int) (uint64, int) {
	if IsLittleEndian {
		// If architecture is little endian we can simply cast to a pointer
		// nolint: gosec
		return *(*uint64)(unsafe.Pointer(&buffer[offset])), offset + 8
	}
	return littleEndian.Uint64(buffer[offset:]), offset + 8
}

func ReadInt64FromBufferLE(buffer []byte, offset int) (int64, int) {
	u, off := ReadUint64FromBufferLE(buffer, offset)
	return int64(u), off
}

func ReadUint64FromBufferBE(buffer []byte, offset int) (uint64, int) {
	return bigEndian.Uint64(buffer[offset:]), offset + 8
}

func ReadFloat64FromBufferLE(buffer []byte, offset int) (val float64, off int) {
	var u uint64
	u, offset = ReadUint64FromBufferLE(buffer, offset)
	return math.Float64frombits(u), offset
}

func ReadFloat32FromBufferLE(buffer []byte, offset int) (val float32, off int) {
	var u uint32
	u, offset = ReadUint32FromBufferLE(buffer, offset)
	return math.Float32frombits(u), offset
}

// ReadBytesFromBufferLE returns a copy of a length-prefixed byte string.
func ReadBytesFromBufferLE(buffer []byte, offset int) (val []byte, off int) {
	lu, offset := ReadUint32FromBufferLE(buffer, offset)
	l := int(lu)
	return CopyByteSlice(buffer[offset : offset+l]), offset + l
}

func ReadStringFromBufferLE(buffer []byte, offset int) (val string, off int) {
	lu, offset := ReadUint32FromBufferLE(buffer, offset)
	l := int(lu)
	return string(buffer[offset : offset+l]), offset + l
}

// Are we running on a machine with a little endian architecture?
func isLittleEndian() bool {
	val := uint64(123456)
	buffer := make([]byte, 0, 8)
	buffer = AppendUint64ToBufferLE(buffer, val)
	valRead := *(*uint64)(unsafe.Pointer(&buffer[0])) // nolint: gosec
	return val == valRead
}
