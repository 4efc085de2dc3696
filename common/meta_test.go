package common

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestColumnType_String(t *testing.T) {
	tests := []struct {
		colType  ColumnType
		expected string
	}{
		{IntColumnType, "INTEGER"},
		{NewDecimalColumnType(10, 2), "DECIMAL(10,2)"},
		{NewTimestampColumnType(UnitMillis), "TIMESTAMP_MS"},
		{NewEnumColumnType("a", "it's"), "ENUM('a', 'it''s')"},
		{NewArrayColumnType(VarcharColumnType, 3), "VARCHAR[3]"},
		{NewListColumnType(NewListColumnType(IntColumnType)), "INTEGER[][]"},
		{NewMapColumnType(VarcharColumnType, DoubleColumnType), "MAP(VARCHAR, DOUBLE)"},
		{NewStructColumnType(ColumnInfo{Name: "a", ColumnType: IntColumnType},
			ColumnInfo{Name: "my field", ColumnType: VarcharColumnType}), "STRUCT(a INTEGER, `my field` VARCHAR)"},
		{NewUnionColumnType(ColumnInfo{Name: "num", ColumnType: IntColumnType},
			ColumnInfo{Name: "str", ColumnType: VarcharColumnType}), "UNION(num INTEGER, str VARCHAR)"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.expected, tc.colType.String())
	}
}

func TestDecimalWidth(t *testing.T) {
	require.Equal(t, 2, NewDecimalColumnType(4, 1).DecimalWidth())
	require.Equal(t, 4, NewDecimalColumnType(5, 1).DecimalWidth())
	require.Equal(t, 4, NewDecimalColumnType(9, 1).DecimalWidth())
	require.Equal(t, 8, NewDecimalColumnType(18, 3).DecimalWidth())
	require.Equal(t, 16, NewDecimalColumnType(38, 10).DecimalWidth())
}

func TestValidate(t *testing.T) {
	require.NoError(t, NewArrayColumnType(IntColumnType, 3).Validate())
	require.Error(t, NewArrayColumnType(IntColumnType, 0).Validate())
	require.Error(t, NewDecimalColumnType(39, 2).Validate())
	require.Error(t, NewDecimalColumnType(4, 5).Validate())
	require.Error(t, NewEnumColumnType().Validate())
	require.Error(t, NewEnumColumnType("a", "a").Validate())
	require.Error(t, NewStructColumnType(ColumnInfo{Name: "a", ColumnType: IntColumnType},
		ColumnInfo{Name: "A", ColumnType: IntColumnType}).Validate())
	// nested children are validated too
	require.Error(t, NewListColumnType(NewDecimalColumnType(0, 0)).Validate())
}

func TestChildIndex(t *testing.T) {
	st := NewStructColumnType(ColumnInfo{Name: "a", ColumnType: IntColumnType},
		ColumnInfo{Name: "B", ColumnType: IntColumnType})
	require.Equal(t, 1, st.ChildIndex("b"))
	require.Equal(t, -1, st.ChildIndex("c"))
	require.Equal(t, []string{"a", "B"}, st.ChildNames())
}

func TestInt128Conversions(t *testing.T) {
	for _, s := range []string{"0", "-1", "170141183460469231731687303715884105727",
		"-170141183460469231731687303715884105728", "18446744073709551616", "-18446744073709551617"} {
		b, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		i, err := Int128FromBig(b)
		require.NoError(t, err)
		require.Equal(t, s, i.String())
	}
	i, err := Int128FromBig(MaxUInt128)
	require.NoError(t, err)
	require.Equal(t, MaxUInt128.String(), i.BigUnsigned().String())
	require.Equal(t, "-1", i.String())

	_, err = Int128FromBig(new(big.Int).Add(MaxUInt128, big.NewInt(1)))
	require.Error(t, err)
	require.Equal(t, Int128{Lo: ^uint64(0), Hi: -1}, Int128FromInt64(-1))
}

func TestDecimalConversion(t *testing.T) {
	d := NewDecimalFromInt64(-12345, 2)
	require.Equal(t, "-123.45", d.String())
	require.True(t, d.ToDecimal().Equal(decimal.RequireFromString("-123.45")))
	require.Equal(t, 2, DecimalScale(decimal.RequireFromString("1.50")))
	require.Equal(t, 0, DecimalScale(decimal.New(5, 3)))
}

func TestTimestampUnits(t *testing.T) {
	tm := time.Date(2021, 3, 4, 5, 6, 7, 123456789, time.UTC)
	require.Equal(t, tm.Unix(), TimestampFromTime(tm, UnitSeconds).Value)
	require.Equal(t, tm.UnixNano()/1e6, TimestampFromTime(tm, UnitMillis).Value)
	require.Equal(t, tm.UnixNano()/1e3, TimestampFromTime(tm, UnitMicros).Value)
	require.Equal(t, tm.UnixNano(), TimestampFromTime(tm, UnitNanos).Value)
	require.Equal(t, tm.Truncate(time.Microsecond), TimestampFromTime(tm, UnitMicros).Time())
	require.Equal(t, tm.Truncate(time.Millisecond), TimestampFromTime(tm, UnitNanos).Convert(UnitMillis).Time())

	before := time.Date(1969, 12, 31, 23, 59, 59, 500000000, time.UTC)
	require.Equal(t, before, TimestampFromTime(before, UnitMicros).Time())
}

func TestDates(t *testing.T) {
	d := DateFromTime(time.Date(1970, 1, 2, 23, 0, 0, 0, time.UTC))
	require.Equal(t, int32(1), d.Days)
	require.Equal(t, "1970-01-02", d.String())
	require.Equal(t, int32(-1), DateFromTime(time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)).Days)
}

func TestParseLiteral(t *testing.T) {
	v, err := ParseLiteral(IntColumnType, "-42")
	require.NoError(t, err)
	require.Equal(t, int64(-42), v)

	v, err = ParseLiteral(NewDecimalColumnType(10, 2), "1.5")
	require.NoError(t, err)
	require.Equal(t, NewDecimalFromInt64(150, 2), v)

	_, err = ParseLiteral(NewDecimalColumnType(10, 2), "1.555")
	require.Error(t, err)

	v, err = ParseLiteral(BooleanColumnType, "TRUE")
	require.NoError(t, err)
	require.Equal(t, true, v)

	v, err = ParseLiteral(DateColumnType, "1970-01-11")
	require.NoError(t, err)
	require.Equal(t, Date{Days: 10}, v)

	v, err = ParseLiteral(TimeColumnType, "01:00:00.5")
	require.NoError(t, err)
	require.Equal(t, Time{Micros: 3600500000}, v)

	_, err = ParseLiteral(NewListColumnType(IntColumnType), "1")
	require.Error(t, err)
}
