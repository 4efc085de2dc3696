package common

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

func InvokeCloser(closer io.Closer) {
	if closer != nil {
		if err := closer.Close(); err != nil {
			log.Warnf("failed to close closer %v", err)
		}
	}
}

// IncrementBytesBigEndian returns a copy of bytes that is one larger when read as a big-endian number, keeping the
// length. It is used to compute exclusive upper bounds of key prefixes.
func IncrementBytesBigEndian(bytes []byte) []byte {
	inced := CopyByteSlice(bytes)
	for i := len(inced) - 1; i >= 0; i-- {
		if inced[i] < 255 {
			inced[i]++
			return inced
		}
		inced[i] = 0
	}
	panic("cannot increment key - all bits set")
}

func CopyByteSlice(buff []byte) []byte {
	res := make([]byte, len(buff))
	copy(res, buff)
	return res
}

// DumpRowKey renders a row key of the store for debugging.
func DumpRowKey(bytes []byte) string {
	if len(bytes) < 16 {
		return fmt.Sprintf("invalid key %v", bytes)
	}
	tableID, _ := ReadUint64FromBufferBE(bytes, 0)
	seq, _ := ReadUint64FromBufferBE(bytes, 8)
	return fmt.Sprintf("tid:%05d|seq:%d", tableID, seq)
}
