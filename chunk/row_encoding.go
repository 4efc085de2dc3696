package chunk

import (
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
)

// Rows are encoded value by value in column order. Each value starts with a validity byte. Fixed-width values
// follow in the same little-endian layout as a vector slot, VARCHAR and BLOB are length-prefixed, LIST and MAP are
// prefixed by their element count, and a UNION writes its tag byte before the selected member only.

func EncodeRow(ch *Chunk, rowIndex int, buffer []byte) []byte {
	for _, col := range ch.columns {
		buffer = encodeValue(col, rowIndex, buffer)
	}
	return buffer
}

func encodeValue(v *Vector, slot int, buffer []byte) []byte {
	if !v.IsValid(slot) {
		return append(buffer, 0)
	}
	buffer = append(buffer, 1)
	switch v.colType.Type {
	case common.TypeVarchar, common.TypeBlob:
		off, l := v.ListEntry(slot)
		return common.AppendBytesToBufferLE(buffer, v.heap[off:off+l])
	case common.TypeStruct:
		for _, child := range v.children {
			buffer = encodeValue(child, slot, buffer)
		}
		return buffer
	case common.TypeUnion:
		tag := v.UnionTag(slot)
		buffer = append(buffer, byte(tag))
		return encodeValue(v.children[tag], slot, buffer)
	case common.TypeArray:
		length := v.colType.ArrayLength
		for i := 0; i < length; i++ {
			buffer = encodeValue(v.children[0], slot*length+i, buffer)
		}
		return buffer
	case common.TypeList, common.TypeMap:
		off, l := v.ListEntry(slot)
		buffer = common.AppendUint32ToBufferLE(buffer, uint32(l))
		for i := 0; i < l; i++ {
			buffer = encodeValue(v.children[0], off+i, buffer)
		}
		return buffer
	default:
		return append(buffer, v.slotBytes(slot)...)
	}
}

// DecodeRow decodes a row encoded by EncodeRow into the same Go values Vector.Value returns.
func DecodeRow(buffer []byte, colTypes []common.ColumnType) ([]interface{}, error) {
	row := make([]interface{}, len(colTypes))
	offset := 0
	for i, colType := range colTypes {
		var err error
		row[i], offset, err = decodeValue(buffer, offset, colType)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if offset != len(buffer) {
		return nil, errors.Errorf("row has %d trailing bytes", len(buffer)-offset)
	}
	return row, nil
}

func decodeValue(buffer []byte, offset int, colType common.ColumnType) (interface{}, int, error) {
	if offset >= len(buffer) {
		return nil, 0, errors.Errorf("row truncated at offset %d", offset)
	}
	if buffer[offset] == 0 {
		return nil, offset + 1, nil
	}
	offset++
	switch colType.Type {
	case common.TypeVarchar, common.TypeBlob:
		l, off, err := readLength(buffer, offset)
		if err != nil {
			return nil, 0, err
		}
		if colType.Type == common.TypeVarchar {
			return string(buffer[off : off+l]), off + l, nil
		}
		return common.CopyByteSlice(buffer[off : off+l]), off + l, nil
	case common.TypeStruct:
		st := make(common.Struct, len(colType.Children))
		for i, child := range colType.Children {
			var val interface{}
			var err error
			val, offset, err = decodeValue(buffer, offset, child.ColumnType)
			if err != nil {
				return nil, 0, err
			}
			st[i] = common.Field{Name: child.Name, Value: val}
		}
		return st, offset, nil
	case common.TypeUnion:
		if offset >= len(buffer) {
			return nil, 0, errors.Errorf("row truncated at offset %d", offset)
		}
		tag := int(buffer[offset])
		if tag >= len(colType.Children) {
			return nil, 0, errors.Errorf("invalid union tag %d", tag)
		}
		val, offset, err := decodeValue(buffer, offset+1, colType.Children[tag].ColumnType)
		if err != nil {
			return nil, 0, err
		}
		return common.Union{Tag: colType.Children[tag].Name, Value: val}, offset, nil
	case common.TypeArray:
		return decodeElements(buffer, offset, colType.ElementType(), colType.ArrayLength)
	case common.TypeList:
		l, off, err := readLength(buffer, offset)
		if err != nil {
			return nil, 0, err
		}
		return decodeElements(buffer, off, colType.ElementType(), l)
	case common.TypeMap:
		l, off, err := readLength(buffer, offset)
		if err != nil {
			return nil, 0, err
		}
		elems, offset, err := decodeElements(buffer, off, colType.ElementType(), l)
		if err != nil {
			return nil, 0, err
		}
		m := make(common.Map, l)
		for i, elem := range elems.([]interface{}) {
			if st, ok := elem.(common.Struct); ok {
				m[i] = common.MapEntry{Key: st[0].Value, Value: st[1].Value}
			}
		}
		return m, offset, nil
	default:
		width := colType.FixedWidth()
		if offset+width > len(buffer) {
			return nil, 0, errors.Errorf("row truncated at offset %d", offset)
		}
		return decodeFixed(colType, buffer[offset:offset+width]), offset + width, nil
	}
}

// readLength reads a length prefix. Every byte or element it counts takes at least one byte, so a length larger
// than the rest of the buffer means the row is truncated.
func readLength(buffer []byte, offset int) (int, int, error) {
	if offset+4 > len(buffer) {
		return 0, 0, errors.Errorf("row truncated at offset %d", offset)
	}
	lu, off := common.ReadUint32FromBufferLE(buffer, offset)
	l := int(lu)
	if l > len(buffer)-off {
		return 0, 0, errors.Errorf("row truncated at offset %d, length %d exceeds remaining %d bytes", off, l,
			len(buffer)-off)
	}
	return l, off, nil
}

func decodeElements(buffer []byte, offset int, elemType common.ColumnType, count int) (interface{}, int, error) {
	elems := make([]interface{}, count)
	for i := 0; i < count; i++ {
		var err error
		elems[i], offset, err = decodeValue(buffer, offset, elemType)
		if err != nil {
			return nil, 0, err
		}
	}
	return elems, offset, nil
}
