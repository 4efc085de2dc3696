package chunk

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
)

// WriteValue writes a scalar value into slot and marks it valid. A nil value, or a nil *big.Int, writes a null.
// Nested kinds are written through their children and are rejected here.
func (v *Vector) WriteValue(slot int, value interface{}) error {
	if b, ok := value.(*big.Int); value == nil || (ok && b == nil) {
		v.WriteNull(slot)
		return nil
	}
	var err error
	switch v.colType.Type {
	case common.TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return v.mismatch(value)
		}
		if b {
			v.data[slot] = 1
		} else {
			v.data[slot] = 0
		}
	case common.TypeTinyInt, common.TypeSmallInt, common.TypeInt, common.TypeBigInt,
		common.TypeUTinyInt, common.TypeUSmallInt, common.TypeUInt, common.TypeUBigInt:
		err = v.writeInteger(slot, value)
	case common.TypeHugeInt, common.TypeUHugeInt:
		err = v.writeHugeInt(slot, value)
	case common.TypeFloat:
		switch f := value.(type) {
		case float32:
			common.PutUint32LE(v.data, slot*4, math.Float32bits(f))
		case float64:
			common.PutUint32LE(v.data, slot*4, math.Float32bits(float32(f)))
		default:
			return v.mismatch(value)
		}
	case common.TypeDouble:
		switch f := value.(type) {
		case float32:
			common.PutUint64LE(v.data, slot*8, math.Float64bits(float64(f)))
		case float64:
			common.PutUint64LE(v.data, slot*8, math.Float64bits(f))
		default:
			return v.mismatch(value)
		}
	case common.TypeDecimal:
		err = v.writeDecimal(slot, value)
	case common.TypeVarchar, common.TypeBlob:
		switch s := value.(type) {
		case string:
			v.writeHeap(slot, []byte(s))
		case []byte:
			v.writeHeap(slot, s)
		default:
			return v.mismatch(value)
		}
	case common.TypeDate:
		switch d := value.(type) {
		case common.Date:
			common.PutUint32LE(v.data, slot*4, uint32(d.Days))
		case time.Time:
			common.PutUint32LE(v.data, slot*4, uint32(common.DateFromTime(d).Days))
		default:
			return v.mismatch(value)
		}
	case common.TypeTime:
		switch t := value.(type) {
		case common.Time:
			common.PutUint64LE(v.data, slot*8, uint64(t.Micros))
		case time.Duration:
			common.PutUint64LE(v.data, slot*8, uint64(t.Microseconds()))
		default:
			return v.mismatch(value)
		}
	case common.TypeTimeTz:
		var tz common.TimeTz
		switch t := value.(type) {
		case common.TimeTz:
			tz = t
		case time.Time:
			_, offset := t.Zone()
			midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			tz = common.TimeTz{Micros: t.Sub(midnight).Microseconds(), Offset: int32(offset)}
		default:
			return v.mismatch(value)
		}
		common.PutUint64LE(v.data, slot*12, uint64(tz.Micros))
		common.PutUint32LE(v.data, slot*12+8, uint32(tz.Offset))
	case common.TypeTimestamp, common.TypeTimestampTz:
		var ts common.Timestamp
		switch t := value.(type) {
		case time.Time:
			ts = common.TimestampFromTime(t, v.colType.TimestampUnit)
		case common.Timestamp:
			ts = t.Convert(v.colType.TimestampUnit)
		default:
			return v.mismatch(value)
		}
		common.PutUint64LE(v.data, slot*8, uint64(ts.Value))
	case common.TypeInterval:
		var iv common.Interval
		switch i := value.(type) {
		case common.Interval:
			iv = i
		case time.Duration:
			iv = common.Interval{Micros: i.Microseconds()}
		default:
			return v.mismatch(value)
		}
		common.PutUint32LE(v.data, slot*16, uint32(iv.Months))
		common.PutUint32LE(v.data, slot*16+4, uint32(iv.Days))
		common.PutUint64LE(v.data, slot*16+8, uint64(iv.Micros))
	case common.TypeUUID:
		var u uuid.UUID
		switch x := value.(type) {
		case uuid.UUID:
			u = x
		case [16]byte:
			u = x
		case string:
			parsed, perr := uuid.Parse(x)
			if perr != nil {
				return v.mismatch(value)
			}
			u = parsed
		default:
			return v.mismatch(value)
		}
		copy(v.data[slot*16:], u[:])
	case common.TypeEnum:
		err = v.writeEnum(slot, value)
	default:
		return errors.NewTypeMismatchError(v.colType.String(), value)
	}
	if err != nil {
		return err
	}
	v.SetValid(slot)
	return nil
}

func (v *Vector) mismatch(value interface{}) error {
	return errors.NewTypeMismatchError(v.colType.String(), value)
}

func (v *Vector) writeHeap(slot int, b []byte) {
	offset := len(v.heap)
	v.heap = append(v.heap, b...)
	common.PutUint32LE(v.data, slot*8, uint32(offset))
	common.PutUint32LE(v.data, slot*8+4, uint32(len(b)))
}

type integer struct {
	i      int64
	u      uint64
	signed bool
	bits   int
}

func (n integer) String() string {
	if n.signed {
		return strconv.FormatInt(n.i, 10)
	}
	return strconv.FormatUint(n.u, 10)
}

func toInteger(value interface{}) (integer, bool) {
	switch x := value.(type) {
	case int:
		return integer{i: int64(x), signed: true, bits: strconv.IntSize}, true
	case int8:
		return integer{i: int64(x), signed: true, bits: 8}, true
	case int16:
		return integer{i: int64(x), signed: true, bits: 16}, true
	case int32:
		return integer{i: int64(x), signed: true, bits: 32}, true
	case int64:
		return integer{i: x, signed: true, bits: 64}, true
	case uint:
		return integer{u: uint64(x), bits: strconv.IntSize}, true
	case uint8:
		return integer{u: uint64(x), bits: 8}, true
	case uint16:
		return integer{u: uint64(x), bits: 16}, true
	case uint32:
		return integer{u: uint64(x), bits: 32}, true
	case uint64:
		return integer{u: x, bits: 64}, true
	default:
		return integer{}, false
	}
}

var (
	signedMin   = map[int]int64{8: math.MinInt8, 16: math.MinInt16, 32: math.MinInt32, 64: math.MinInt64}
	signedMax   = map[int]int64{8: math.MaxInt8, 16: math.MaxInt16, 32: math.MaxInt32, 64: math.MaxInt64}
	unsignedMax = map[int]uint64{8: math.MaxUint8, 16: math.MaxUint16, 32: math.MaxUint32, 64: math.MaxUint64}
)

// fitInteger returns the bit pattern n is stored as in a column of the given width, or false when it is out of
// range. Negative values that fit the width as signed are accepted by unsigned columns and unsigned values of the
// same width are accepted by signed columns, both keeping their two's complement bits: int8(-1) is stored in a
// UTINYINT as 255 and uint8(255) in a TINYINT as -1.
func fitInteger(n integer, bits int, signedTarget bool) (uint64, bool) {
	mask := unsignedMax[bits]
	if signedTarget {
		if n.signed {
			if n.i < signedMin[bits] || n.i > signedMax[bits] {
				return 0, false
			}
			return uint64(n.i) & mask, true
		}
		if n.u <= uint64(signedMax[bits]) {
			return n.u, true
		}
		if n.bits == bits {
			return n.u & mask, true
		}
		return 0, false
	}
	if !n.signed {
		return n.u, n.u <= mask
	}
	if n.i >= 0 {
		return uint64(n.i), uint64(n.i) <= mask
	}
	if n.i < signedMin[bits] {
		return 0, false
	}
	return uint64(n.i) & mask, true
}

func isSigned(t common.Type) bool {
	switch t {
	case common.TypeTinyInt, common.TypeSmallInt, common.TypeInt, common.TypeBigInt, common.TypeHugeInt:
		return true
	default:
		return false
	}
}

func (v *Vector) writeInteger(slot int, value interface{}) error {
	n, ok := toInteger(value)
	if !ok {
		return v.mismatch(value)
	}
	bits, ok := fitInteger(n, v.width*8, isSigned(v.colType.Type))
	if !ok {
		return errors.NewValueOutOfRangeError(fmt.Sprintf("%s does not fit in %s", n, v.colType.Type))
	}
	switch v.width {
	case 1:
		v.data[slot] = byte(bits)
	case 2:
		common.PutUint16LE(v.data, slot*2, uint16(bits))
	case 4:
		common.PutUint32LE(v.data, slot*4, uint32(bits))
	default:
		common.PutUint64LE(v.data, slot*8, bits)
	}
	return nil
}

func (v *Vector) writeHugeInt(slot int, value interface{}) error {
	var i128 common.Int128
	switch x := value.(type) {
	case common.Int128:
		i128 = x
	case *big.Int:
		upper := common.MaxInt128
		if v.colType.Type == common.TypeUHugeInt {
			upper = common.MaxUInt128
		}
		if x.Cmp(common.MinInt128) < 0 || x.Cmp(upper) > 0 {
			return errors.NewValueOutOfRangeError(fmt.Sprintf("%s does not fit in %s", x, v.colType.Type))
		}
		var err error
		if i128, err = common.Int128FromBig(x); err != nil {
			return errors.NewValueOutOfRangeError(err.Error())
		}
	default:
		n, ok := toInteger(value)
		if !ok {
			return v.mismatch(value)
		}
		if n.signed {
			i128 = common.Int128FromInt64(n.i)
		} else {
			i128 = common.Int128FromUint64(n.u)
		}
	}
	putInt128(v.data, slot*16, i128)
	return nil
}

func putInt128(buff []byte, offset int, i common.Int128) {
	common.PutUint64LE(buff, offset, i.Lo)
	common.PutUint64LE(buff, offset+8, uint64(i.Hi))
}

func (v *Vector) writeDecimal(slot int, value interface{}) error {
	var unscaled *big.Int
	var scale int
	switch d := value.(type) {
	case decimal.Decimal:
		scale = common.DecimalScale(d)
		if d.Exponent() > 0 {
			unscaled = d.BigInt()
		} else {
			unscaled = d.Coefficient()
		}
	case common.Decimal:
		scale = d.Scale
		unscaled = d.Unscaled.Big()
	default:
		return v.mismatch(value)
	}
	if scale != v.colType.DecScale {
		return errors.NewScaleMismatchError(v.colType.DecScale, scale)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(v.colType.DecPrecision)), nil)
	if new(big.Int).Abs(unscaled).Cmp(limit) >= 0 {
		return errors.NewValueOutOfRangeError(fmt.Sprintf("decimal with unscaled value %s exceeds precision %d",
			unscaled, v.colType.DecPrecision))
	}
	switch v.width {
	case 2:
		common.PutUint16LE(v.data, slot*2, uint16(unscaled.Int64()))
	case 4:
		common.PutUint32LE(v.data, slot*4, uint32(unscaled.Int64()))
	case 8:
		common.PutUint64LE(v.data, slot*8, uint64(unscaled.Int64()))
	default:
		i128, err := common.Int128FromBig(unscaled)
		if err != nil {
			return errors.NewValueOutOfRangeError(err.Error())
		}
		putInt128(v.data, slot*16, i128)
	}
	return nil
}

func (v *Vector) writeEnum(slot int, value interface{}) error {
	var index int
	if label, ok := value.(string); ok {
		index = v.colType.EnumIndex(label)
		if index == -1 {
			return errors.NewUnknownEnumValueError(label, v.colType.EnumValues)
		}
	} else {
		n, ok := toInteger(value)
		if !ok {
			return v.mismatch(value)
		}
		if (n.signed && (n.i < 0 || n.i >= int64(len(v.colType.EnumValues)))) ||
			(!n.signed && n.u >= uint64(len(v.colType.EnumValues))) {
			return errors.NewValueOutOfRangeError(fmt.Sprintf("enum index %s out of range", n))
		}
		index = int(n.i)
		if !n.signed {
			index = int(n.u)
		}
	}
	common.PutUint32LE(v.data, slot*4, uint32(index))
	return nil
}
