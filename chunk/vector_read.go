package chunk

import (
	"math"
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/squareup/colload/common"
)

// Value reads slot back as a Go value, nil for nulls. Nested kinds come back as []interface{} for ARRAY and LIST,
// common.Struct, common.Union and common.Map.
func (v *Vector) Value(slot int) interface{} {
	if !v.IsValid(slot) {
		return nil
	}
	switch v.colType.Type {
	case common.TypeVarchar:
		off, l := v.ListEntry(slot)
		return string(v.heap[off : off+l])
	case common.TypeBlob:
		off, l := v.ListEntry(slot)
		return common.CopyByteSlice(v.heap[off : off+l])
	case common.TypeStruct:
		st := make(common.Struct, len(v.children))
		for i, child := range v.children {
			st[i] = common.Field{Name: v.colType.Children[i].Name, Value: child.Value(slot)}
		}
		return st
	case common.TypeUnion:
		tag := v.UnionTag(slot)
		return common.Union{Tag: v.colType.Children[tag].Name, Value: v.children[tag].Value(slot)}
	case common.TypeArray:
		length := v.colType.ArrayLength
		elems := make([]interface{}, length)
		for i := 0; i < length; i++ {
			elems[i] = v.children[0].Value(slot*length + i)
		}
		return elems
	case common.TypeList:
		off, l := v.ListEntry(slot)
		elems := make([]interface{}, l)
		for i := 0; i < l; i++ {
			elems[i] = v.children[0].Value(off + i)
		}
		return elems
	case common.TypeMap:
		off, l := v.ListEntry(slot)
		entries := v.children[0]
		m := make(common.Map, l)
		for i := 0; i < l; i++ {
			m[i] = common.MapEntry{Key: entries.children[0].Value(off + i), Value: entries.children[1].Value(off + i)}
		}
		return m
	default:
		return decodeFixed(v.colType, v.slotBytes(slot))
	}
}

// decodeFixed converts the little-endian bytes of a fixed-width value.
func decodeFixed(colType common.ColumnType, b []byte) interface{} {
	switch colType.Type {
	case common.TypeBoolean:
		return b[0] != 0
	case common.TypeTinyInt:
		return int8(b[0])
	case common.TypeUTinyInt:
		return b[0]
	case common.TypeSmallInt:
		u, _ := common.ReadUint16FromBufferLE(b, 0)
		return int16(u)
	case common.TypeUSmallInt:
		u, _ := common.ReadUint16FromBufferLE(b, 0)
		return u
	case common.TypeInt:
		u, _ := common.ReadUint32FromBufferLE(b, 0)
		return int32(u)
	case common.TypeUInt:
		u, _ := common.ReadUint32FromBufferLE(b, 0)
		return u
	case common.TypeBigInt:
		i, _ := common.ReadInt64FromBufferLE(b, 0)
		return i
	case common.TypeUBigInt:
		u, _ := common.ReadUint64FromBufferLE(b, 0)
		return u
	case common.TypeHugeInt:
		return readInt128(b).Big()
	case common.TypeUHugeInt:
		return readInt128(b).BigUnsigned()
	case common.TypeFloat:
		u, _ := common.ReadUint32FromBufferLE(b, 0)
		return math.Float32frombits(u)
	case common.TypeDouble:
		u, _ := common.ReadUint64FromBufferLE(b, 0)
		return math.Float64frombits(u)
	case common.TypeDecimal:
		return decodeDecimal(colType, b)
	case common.TypeDate:
		u, _ := common.ReadUint32FromBufferLE(b, 0)
		return common.Date{Days: int32(u)}
	case common.TypeTime:
		i, _ := common.ReadInt64FromBufferLE(b, 0)
		return common.Time{Micros: i}
	case common.TypeTimeTz:
		i, _ := common.ReadInt64FromBufferLE(b, 0)
		off, _ := common.ReadUint32FromBufferLE(b, 8)
		return common.TimeTz{Micros: i, Offset: int32(off)}
	case common.TypeTimestamp, common.TypeTimestampTz:
		i, _ := common.ReadInt64FromBufferLE(b, 0)
		return common.Timestamp{Value: i, Unit: colType.TimestampUnit}.Time()
	case common.TypeInterval:
		months, _ := common.ReadUint32FromBufferLE(b, 0)
		days, _ := common.ReadUint32FromBufferLE(b, 4)
		micros, _ := common.ReadInt64FromBufferLE(b, 8)
		return common.Interval{Months: int32(months), Days: int32(days), Micros: micros}
	case common.TypeUUID:
		var u uuid.UUID
		copy(u[:], b)
		return u
	case common.TypeEnum:
		idx, _ := common.ReadUint32FromBufferLE(b, 0)
		return colType.EnumValues[idx]
	default:
		panic("not a fixed width type " + colType.String())
	}
}

func readInt128(b []byte) common.Int128 {
	lo, _ := common.ReadUint64FromBufferLE(b, 0)
	hi, _ := common.ReadInt64FromBufferLE(b, 8)
	return common.Int128{Lo: lo, Hi: hi}
}

func decodeDecimal(colType common.ColumnType, b []byte) decimal.Decimal {
	exp := int32(-colType.DecScale)
	switch len(b) {
	case 2:
		u, _ := common.ReadUint16FromBufferLE(b, 0)
		return decimal.New(int64(int16(u)), exp)
	case 4:
		u, _ := common.ReadUint32FromBufferLE(b, 0)
		return decimal.New(int64(int32(u)), exp)
	case 8:
		i, _ := common.ReadInt64FromBufferLE(b, 0)
		return decimal.New(i, exp)
	default:
		return decimal.NewFromBigInt(new(big.Int).Set(readInt128(b).Big()), exp)
	}
}
