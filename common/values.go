package common

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Int128 is a 128-bit two's complement integer split in two 64-bit halves. UHUGEINT columns store the same bit
// pattern interpreted as unsigned.
type Int128 struct {
	Lo uint64
	Hi int64
}

var (
	bigOne         = big.NewInt(1)
	twoPow64       = new(big.Int).Lsh(bigOne, 64)
	twoPow128      = new(big.Int).Lsh(bigOne, 128)
	MinInt128      = new(big.Int).Neg(new(big.Int).Lsh(bigOne, 127))
	MaxInt128      = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 127), bigOne)
	MaxUInt128     = new(big.Int).Sub(twoPow128, bigOne)
	maxUint64AsBig = new(big.Int).SetUint64(^uint64(0))
)

func Int128FromInt64(v int64) Int128 {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return Int128{Lo: uint64(v), Hi: hi}
}

func Int128FromUint64(v uint64) Int128 {
	return Int128{Lo: v}
}

// Int128FromBig converts v, which must lie in [MinInt128, MaxUInt128]. Values above MaxInt128 keep their unsigned
// bit pattern.
func Int128FromBig(v *big.Int) (Int128, error) {
	if v.Cmp(MinInt128) < 0 || v.Cmp(MaxUInt128) > 0 {
		return Int128{}, fmt.Errorf("%s does not fit in 128 bits", v.String())
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, twoPow128)
	}
	lo := new(big.Int).And(u, maxUint64AsBig).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()
	return Int128{Lo: lo, Hi: int64(hi)}, nil
}

// Big returns the signed value.
func (i Int128) Big() *big.Int {
	res := new(big.Int).SetInt64(i.Hi)
	res.Mul(res, twoPow64)
	return res.Add(res, new(big.Int).SetUint64(i.Lo))
}

// BigUnsigned returns the value interpreted as an unsigned 128-bit integer.
func (i Int128) BigUnsigned() *big.Int {
	res := new(big.Int).SetUint64(uint64(i.Hi))
	res.Lsh(res, 64)
	return res.Or(res, new(big.Int).SetUint64(i.Lo))
}

func (i Int128) String() string {
	return i.Big().String()
}

// Decimal is a decimal given as an unscaled integer and a scale, the value being Unscaled * 10^-Scale.
type Decimal struct {
	Unscaled Int128
	Scale    int
}

func NewDecimalFromInt64(unscaled int64, scale int) Decimal {
	return Decimal{Unscaled: Int128FromInt64(unscaled), Scale: scale}
}

// ToDecimal converts to a shopspring decimal.
func (d Decimal) ToDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(d.Unscaled.Big(), int32(-d.Scale))
}

func (d Decimal) String() string {
	return d.ToDecimal().StringFixed(int32(d.Scale))
}

// DecimalScale returns the number of digits after the decimal point of d as written, e.g. 2 for 1.50.
func DecimalScale(d decimal.Decimal) int {
	if d.Exponent() > 0 {
		return 0
	}
	return int(-d.Exponent())
}

// Date is a number of days since the unix epoch.
type Date struct {
	Days int32
}

func DateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	utc := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date{Days: int32(utc.Unix() / 86400)}
}

func (d Date) Time() time.Time {
	return time.Unix(int64(d.Days)*86400, 0).UTC()
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// Time is a time of day in microseconds since midnight.
type Time struct {
	Micros int64
}

func TimeFromDuration(d time.Duration) Time {
	return Time{Micros: d.Microseconds()}
}

func (t Time) String() string {
	return time.Unix(0, t.Micros*1000).UTC().Format("15:04:05.999999")
}

// TimeTz is a time of day with a UTC offset in seconds.
type TimeTz struct {
	Micros int64
	Offset int32
}

func (t TimeTz) String() string {
	sign := '+'
	off := t.Offset
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%s%c%02d:%02d", Time{Micros: t.Micros}.String(), sign, off/3600, (off%3600)/60)
}

// Timestamp is a raw offset from the unix epoch in the given unit.
type Timestamp struct {
	Value int64
	Unit  TimestampUnit
}

// TimestampFromTime converts t to an epoch offset in unit, truncating finer precision.
func TimestampFromTime(t time.Time, unit TimestampUnit) Timestamp {
	switch unit {
	case UnitSeconds:
		return Timestamp{Value: t.Unix(), Unit: unit}
	case UnitMillis:
		return Timestamp{Value: t.UnixNano() / int64(time.Millisecond), Unit: unit}
	case UnitNanos:
		return Timestamp{Value: t.UnixNano(), Unit: unit}
	default:
		return Timestamp{Value: t.Unix()*1e6 + int64(t.Nanosecond()/1000), Unit: UnitMicros}
	}
}

// Convert returns the timestamp expressed in unit.
func (t Timestamp) Convert(unit TimestampUnit) Timestamp {
	if t.Unit == unit {
		return t
	}
	return TimestampFromTime(t.Time(), unit)
}

func (t Timestamp) Time() time.Time {
	switch t.Unit {
	case UnitSeconds:
		return time.Unix(t.Value, 0).UTC()
	case UnitMillis:
		return time.Unix(0, 0).Add(time.Duration(t.Value) * time.Millisecond).UTC()
	case UnitNanos:
		return time.Unix(0, t.Value).UTC()
	default:
		secs := t.Value / 1e6
		micros := t.Value % 1e6
		if micros < 0 {
			secs--
			micros += 1e6
		}
		return time.Unix(secs, micros*1000).UTC()
	}
}

// Interval is a calendar interval.
type Interval struct {
	Months int32
	Days   int32
	Micros int64
}

// Field is one named value of a Struct.
type Field struct {
	Name  string
	Value interface{}
}

// Struct is an ordered list of named values, the value of a STRUCT column.
type Struct []Field

// Get returns the value of the named field.
func (s Struct) Get(name string) (interface{}, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Union is the value of a UNION column: the member selected by Tag and its value.
type Union struct {
	Tag   string
	Value interface{}
}

type MapEntry struct {
	Key   interface{}
	Value interface{}
}

// Map is the value of a MAP column, entries kept in append order.
type Map []MapEntry
