package chunk

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
	"github.com/stretchr/testify/require"
)

func TestWriteReadScalars(t *testing.T) {
	ts := time.Date(2021, 7, 1, 12, 30, 0, 123456000, time.UTC)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	big1, _ := new(big.Int).SetString("-85070591730234615865843651857942052864", 10)
	tests := []struct {
		colType  common.ColumnType
		value    interface{}
		expected interface{}
	}{
		{common.BooleanColumnType, true, true},
		{common.TinyIntColumnType, int8(-128), int8(-128)},
		{common.SmallIntColumnType, 300, int16(300)},
		{common.IntColumnType, int32(math.MaxInt32), int32(math.MaxInt32)},
		{common.BigIntColumnType, int64(math.MinInt64), int64(math.MinInt64)},
		{common.UTinyIntColumnType, uint8(200), uint8(200)},
		{common.USmallIntColumnType, 65535, uint16(65535)},
		{common.UIntColumnType, uint32(math.MaxUint32), uint32(math.MaxUint32)},
		{common.UBigIntColumnType, uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{common.HugeIntColumnType, big1, big1},
		{common.HugeIntColumnType, -7, big.NewInt(-7)},
		{common.UHugeIntColumnType, common.MaxUInt128, common.MaxUInt128},
		{common.FloatColumnType, float32(1.5), float32(1.5)},
		{common.DoubleColumnType, -1234.5678, -1234.5678},
		{common.VarcharColumnType, "foo", "foo"},
		{common.VarcharColumnType, []byte("bar"), "bar"},
		{common.BlobColumnType, []byte{0, 1, 2}, []byte{0, 1, 2}},
		{common.DateColumnType, common.Date{Days: 18000}, common.Date{Days: 18000}},
		{common.DateColumnType, ts, common.DateFromTime(ts)},
		{common.TimeColumnType, 90 * time.Minute, common.Time{Micros: 5400000000}},
		{common.TimeTzColumnType, common.TimeTz{Micros: 1, Offset: -3600}, common.TimeTz{Micros: 1, Offset: -3600}},
		{common.TimestampColumnType, ts, ts},
		{common.NewTimestampColumnType(common.UnitSeconds), ts, ts.Truncate(time.Second)},
		{common.NewTimestampColumnType(common.UnitMillis), ts, ts.Truncate(time.Millisecond)},
		{common.NewTimestampColumnType(common.UnitNanos), ts, ts},
		{common.TimestampTzColumnType, common.Timestamp{Value: 1000, Unit: common.UnitSeconds}, time.Unix(1000, 0).UTC()},
		{common.IntervalColumnType, common.Interval{Months: 1, Days: 2, Micros: 3}, common.Interval{Months: 1, Days: 2, Micros: 3}},
		{common.UUIDColumnType, id, id},
		{common.UUIDColumnType, id.String(), id},
		{common.NewEnumColumnType("a", "b", "c"), "b", "b"},
		{common.NewEnumColumnType("a", "b", "c"), 2, "c"},
	}
	for _, tc := range tests {
		vec := NewVector(tc.colType, 4)
		require.NoError(t, vec.WriteValue(2, tc.value), tc.colType.String())
		require.True(t, vec.IsValid(2))
		require.False(t, vec.IsValid(1))
		actual := vec.Value(2)
		if exp, ok := tc.expected.(*big.Int); ok {
			require.Equal(t, exp.String(), actual.(*big.Int).String())
			continue
		}
		require.Equal(t, tc.expected, actual, tc.colType.String())
	}
}

func TestUnsignedReinterpretation(t *testing.T) {
	tests := []struct {
		colType  common.ColumnType
		value    interface{}
		expected interface{}
	}{
		{common.UTinyIntColumnType, int8(-1), uint8(255)},
		{common.USmallIntColumnType, int16(-1), uint16(65535)},
		{common.UIntColumnType, int32(-1), uint32(4294967295)},
		{common.UBigIntColumnType, int64(-1), uint64(math.MaxUint64)},
		{common.UTinyIntColumnType, -128, uint8(128)},
		{common.TinyIntColumnType, uint8(255), int8(-1)},
		{common.BigIntColumnType, uint64(math.MaxUint64), int64(-1)},
	}
	for _, tc := range tests {
		vec := NewVector(tc.colType, 1)
		require.NoError(t, vec.WriteValue(0, tc.value))
		require.Equal(t, tc.expected, vec.Value(0))
	}
}

func TestNilBigIntWritesNull(t *testing.T) {
	for _, colType := range []common.ColumnType{common.HugeIntColumnType, common.UHugeIntColumnType} {
		vec := NewVector(colType, 2)
		require.NoError(t, vec.WriteValue(0, big.NewInt(5)))
		var b *big.Int
		require.NoError(t, vec.WriteValue(1, b))
		require.Equal(t, "5", vec.Value(0).(*big.Int).String())
		require.False(t, vec.IsValid(1))
		require.Nil(t, vec.Value(1))
	}
}

func TestIntegerOutOfRange(t *testing.T) {
	tests := []struct {
		colType common.ColumnType
		value   interface{}
	}{
		{common.TinyIntColumnType, 128},
		{common.TinyIntColumnType, uint16(255)},
		{common.UTinyIntColumnType, 256},
		{common.UTinyIntColumnType, -129},
		{common.IntColumnType, int64(math.MaxInt32 + 1)},
		{common.UIntColumnType, int64(math.MinInt32 - 1)},
		{common.NewEnumColumnType("a"), 1},
		{common.HugeIntColumnType, common.MaxUInt128},
	}
	for _, tc := range tests {
		vec := NewVector(tc.colType, 1)
		err := vec.WriteValue(0, tc.value)
		require.Error(t, err)
		require.True(t, errors.HasCode(err, errors.ValueOutOfRange), err.Error())
		require.False(t, vec.IsValid(0))
	}
}

func TestTypeMismatch(t *testing.T) {
	tests := []struct {
		colType common.ColumnType
		value   interface{}
	}{
		{common.IntColumnType, "foo"},
		{common.VarcharColumnType, 1},
		{common.BooleanColumnType, 1},
		{common.DoubleColumnType, 1},
		{common.UUIDColumnType, "not-a-uuid"},
		{common.NewDecimalColumnType(10, 2), 1.5},
		{common.NewStructColumnType(common.ColumnInfo{Name: "a", ColumnType: common.IntColumnType}), 1},
	}
	for _, tc := range tests {
		vec := NewVector(tc.colType, 1)
		err := vec.WriteValue(0, tc.value)
		require.True(t, errors.HasCode(err, errors.TypeMismatch), tc.colType.String())
	}
}

func TestUnknownEnumValue(t *testing.T) {
	vec := NewVector(common.NewEnumColumnType("red", "green"), 1)
	err := vec.WriteValue(0, "blue")
	require.True(t, errors.HasCode(err, errors.UnknownEnumValue))
}

func TestDecimalWidthClasses(t *testing.T) {
	for _, precision := range []int{4, 9, 18, 38} {
		colType := common.NewDecimalColumnType(precision, 2)
		vec := NewVector(colType, 2)
		require.Equal(t, colType.DecimalWidth(), vec.width)

		require.NoError(t, vec.WriteValue(0, decimal.RequireFromString("-12.34")))
		require.True(t, decimal.RequireFromString("-12.34").Equal(vec.Value(0).(decimal.Decimal)))
		require.Equal(t, "-12.34", vec.Value(0).(decimal.Decimal).StringFixed(2))

		require.NoError(t, vec.WriteValue(1, common.NewDecimalFromInt64(99, 2)))
		require.Equal(t, "0.99", vec.Value(1).(decimal.Decimal).StringFixed(2))

		err := vec.WriteValue(0, decimal.RequireFromString("12.3"))
		require.True(t, errors.HasCode(err, errors.ScaleMismatch))
		err = vec.WriteValue(0, decimal.RequireFromString("12.345"))
		require.True(t, errors.HasCode(err, errors.ScaleMismatch))
	}
}

func TestDecimalPrecisionOverflow(t *testing.T) {
	vec := NewVector(common.NewDecimalColumnType(4, 2), 1)
	require.NoError(t, vec.WriteValue(0, decimal.RequireFromString("99.99")))
	err := vec.WriteValue(0, decimal.RequireFromString("100.00"))
	require.True(t, errors.HasCode(err, errors.ValueOutOfRange))

	wide := NewVector(common.NewDecimalColumnType(38, 0), 1)
	largest := new(big.Int).Sub(new(big.Int).Exp(big.NewInt(10), big.NewInt(38), nil), big.NewInt(1))
	require.NoError(t, wide.WriteValue(0, decimal.NewFromBigInt(largest, 0)))
	require.Equal(t, largest.String(), wide.Value(0).(decimal.Decimal).String())
}

func TestStructNullNullsChildren(t *testing.T) {
	colType := common.NewStructColumnType(
		common.ColumnInfo{Name: "a", ColumnType: common.IntColumnType},
		common.ColumnInfo{Name: "b", ColumnType: common.NewArrayColumnType(common.IntColumnType, 2)})
	vec := NewVector(colType, 2)
	vec.SetValid(0)
	require.NoError(t, vec.Child(0).WriteValue(0, 1))
	arr := vec.Child(1)
	arr.SetValid(0)
	require.NoError(t, arr.Child(0).WriteValue(0, 10))
	require.NoError(t, arr.Child(0).WriteValue(1, 11))
	require.Equal(t, common.Struct{{Name: "a", Value: int32(1)}, {Name: "b", Value: []interface{}{int32(10), int32(11)}}},
		vec.Value(0))

	vec.WriteNull(0)
	require.Nil(t, vec.Value(0))
	require.False(t, vec.Child(0).IsValid(0))
	require.False(t, arr.IsValid(0))
	require.False(t, arr.Child(0).IsValid(0))
	require.False(t, arr.Child(0).IsValid(1))
}

func TestListChildGrowsByDoubling(t *testing.T) {
	vec := NewVector(common.NewListColumnType(common.VarcharColumnType), 2)
	require.Equal(t, 2, vec.Child(0).Capacity())
	vec.SetValid(0)
	for i := 0; i < 5; i++ {
		slot := vec.NextChildSlot()
		require.Equal(t, i, slot)
		require.NoError(t, vec.Child(0).WriteValue(slot, string(rune('a'+i))))
	}
	vec.SetListEntry(0, 0, 5)
	require.Equal(t, 8, vec.Child(0).Capacity())
	require.Equal(t, []interface{}{"a", "b", "c", "d", "e"}, vec.Value(0))

	vec.ReserveChildCapacity(20)
	require.Equal(t, 32, vec.Child(0).Capacity())
	require.Equal(t, []interface{}{"a", "b", "c", "d", "e"}, vec.Value(0))
}

func TestUnionValue(t *testing.T) {
	colType := common.NewUnionColumnType(
		common.ColumnInfo{Name: "num", ColumnType: common.IntColumnType},
		common.ColumnInfo{Name: "str", ColumnType: common.VarcharColumnType})
	vec := NewVector(colType, 2)
	vec.SetUnionTag(1, 1)
	vec.SetValid(1)
	require.NoError(t, vec.Child(1).WriteValue(1, "x"))
	require.Equal(t, common.Union{Tag: "str", Value: "x"}, vec.Value(1))
	vec.WriteNull(1)
	require.Nil(t, vec.Value(1))
}

func TestMapValue(t *testing.T) {
	vec := NewVector(common.NewMapColumnType(common.VarcharColumnType, common.IntColumnType), 1)
	entries := vec.Child(0)
	vec.SetValid(0)
	for i, k := range []string{"x", "y"} {
		slot := vec.NextChildSlot()
		entries.SetValid(slot)
		require.NoError(t, entries.Child(0).WriteValue(slot, k))
		require.NoError(t, entries.Child(1).WriteValue(slot, i))
	}
	vec.SetListEntry(0, 0, 2)
	require.Equal(t, common.Map{{Key: "x", Value: int32(0)}, {Key: "y", Value: int32(1)}}, vec.Value(0))
}

func TestVectorReset(t *testing.T) {
	vec := NewVector(common.NewListColumnType(common.IntColumnType), 2)
	vec.SetValid(0)
	slot := vec.NextChildSlot()
	require.NoError(t, vec.Child(0).WriteValue(slot, 1))
	vec.SetListEntry(0, slot, 1)
	vec.Reset()
	require.False(t, vec.IsValid(0))
	require.Equal(t, 0, vec.ChildLen())
	require.False(t, vec.Child(0).IsValid(0))
}
