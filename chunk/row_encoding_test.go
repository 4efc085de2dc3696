package chunk

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/squareup/colload/common"
	"github.com/stretchr/testify/require"
)

func nestedColumnTypes() []common.ColumnType {
	return []common.ColumnType{
		common.IntColumnType,
		common.VarcharColumnType,
		common.NewDecimalColumnType(10, 2),
		common.NewStructColumnType(
			common.ColumnInfo{Name: "x", ColumnType: common.DoubleColumnType},
			common.ColumnInfo{Name: "tags", ColumnType: common.NewListColumnType(common.VarcharColumnType)}),
		common.NewUnionColumnType(
			common.ColumnInfo{Name: "num", ColumnType: common.BigIntColumnType},
			common.ColumnInfo{Name: "str", ColumnType: common.VarcharColumnType}),
		common.NewArrayColumnType(common.SmallIntColumnType, 3),
		common.NewMapColumnType(common.VarcharColumnType, common.BooleanColumnType),
	}
}

func fillRow(t *testing.T, ch *Chunk, id int, withNulls bool) {
	t.Helper()
	slot := ch.RowCount()
	require.NoError(t, ch.Column(0).WriteValue(slot, id))
	if withNulls {
		for i := 1; i < ch.ColumnCount(); i++ {
			ch.Column(i).WriteNull(slot)
		}
		ch.CommitRow()
		return
	}
	require.NoError(t, ch.Column(1).WriteValue(slot, "somestringxyz"))
	require.NoError(t, ch.Column(2).WriteValue(slot, decimal.RequireFromString("12345678.32")))

	st := ch.Column(3)
	st.SetValid(slot)
	require.NoError(t, st.Child(0).WriteValue(slot, math.MaxFloat64))
	tags := st.Child(1)
	tags.SetValid(slot)
	start := tags.ChildLen()
	for _, tag := range []string{"a", "b"} {
		require.NoError(t, tags.Child(0).WriteValue(tags.NextChildSlot(), tag))
	}
	tags.SetListEntry(slot, start, 2)

	un := ch.Column(4)
	un.SetValid(slot)
	un.SetUnionTag(slot, 1)
	un.Child(0).WriteNull(slot)
	require.NoError(t, un.Child(1).WriteValue(slot, "member"))

	arr := ch.Column(5)
	arr.SetValid(slot)
	require.NoError(t, arr.Child(0).WriteValue(slot*3, 1))
	arr.Child(0).WriteNull(slot*3 + 1)
	require.NoError(t, arr.Child(0).WriteValue(slot*3+2, 3))

	m := ch.Column(6)
	m.SetValid(slot)
	entrySlot := m.NextChildSlot()
	m.Child(0).SetValid(entrySlot)
	require.NoError(t, m.Child(0).Child(0).WriteValue(entrySlot, "k"))
	require.NoError(t, m.Child(0).Child(1).WriteValue(entrySlot, true))
	m.SetListEntry(slot, entrySlot, 1)
	ch.CommitRow()
}

func TestEncodeDecodeRow(t *testing.T) {
	colTypes := nestedColumnTypes()
	ch := NewChunk(colTypes, 4)
	fillRow(t, ch, 1, false)
	fillRow(t, ch, 2, true)
	fillRow(t, ch, 3, false)
	require.Equal(t, 3, ch.RowCount())

	for i := 0; i < ch.RowCount(); i++ {
		buff := EncodeRow(ch, i, nil)
		row, err := DecodeRow(buff, colTypes)
		require.NoError(t, err)
		require.Equal(t, ch.Row(i), row)
	}

	row := ch.Row(2)
	require.Equal(t, int32(3), row[0])
	require.Equal(t, common.Struct{{Name: "x", Value: math.MaxFloat64}, {Name: "tags", Value: []interface{}{"a", "b"}}}, row[3])
	require.Equal(t, common.Union{Tag: "str", Value: "member"}, row[4])
	require.Equal(t, []interface{}{int16(1), nil, int16(3)}, row[5])
	require.Equal(t, common.Map{{Key: "k", Value: true}}, row[6])

	nullRow := ch.Row(1)
	require.Equal(t, []interface{}{int32(2), nil, nil, nil, nil, nil, nil}, nullRow)
}

func TestDecodeTruncatedRow(t *testing.T) {
	colTypes := []common.ColumnType{common.BigIntColumnType}
	ch := NewChunk(colTypes, 1)
	require.NoError(t, ch.Column(0).WriteValue(0, int64(7)))
	ch.CommitRow()
	buff := EncodeRow(ch, 0, nil)
	_, err := DecodeRow(buff[:len(buff)-1], colTypes)
	require.Error(t, err)
	_, err = DecodeRow(append(buff, 0), colTypes)
	require.Error(t, err)
}

func TestDecodeTruncatedNestedRow(t *testing.T) {
	listType := []common.ColumnType{common.NewListColumnType(common.VarcharColumnType)}
	ch := NewChunk(listType, 1)
	list := ch.Column(0)
	list.SetValid(0)
	elem := list.NextChildSlot()
	require.NoError(t, list.Child(0).WriteValue(elem, "hello"))
	list.SetListEntry(0, elem, 1)
	ch.CommitRow()
	buff := EncodeRow(ch, 0, nil)
	row, err := DecodeRow(buff, listType)
	require.NoError(t, err)
	require.Equal(t, []interface{}{[]interface{}{"hello"}}, row)
	for cut := 0; cut < len(buff); cut++ {
		_, err := DecodeRow(buff[:cut], listType)
		require.Error(t, err, "cut at %d", cut)
	}

	colTypes := nestedColumnTypes()
	ch = NewChunk(colTypes, 1)
	fillRow(t, ch, 1, false)
	buff = EncodeRow(ch, 0, nil)
	_, err = DecodeRow(buff, colTypes)
	require.NoError(t, err)
	for cut := 0; cut < len(buff); cut++ {
		_, err := DecodeRow(buff[:cut], colTypes)
		require.Error(t, err, "cut at %d", cut)
	}

	_, err = DecodeRow([]byte{1, 0xff, 0xff, 0xff, 0xff}, listType)
	require.Error(t, err)
	_, err = DecodeRow([]byte{1, 0x05, 0, 0, 0, 'a'}, []common.ColumnType{common.BlobColumnType})
	require.Error(t, err)
}

func TestChunkReset(t *testing.T) {
	ch := NewChunk([]common.ColumnType{common.IntColumnType}, 2)
	require.NoError(t, ch.Column(0).WriteValue(0, 1))
	ch.CommitRow()
	require.NoError(t, ch.Column(0).WriteValue(1, 2))
	ch.CommitRow()
	require.True(t, ch.IsFull())
	require.Panics(t, ch.CommitRow)
	require.Equal(t, [][]interface{}{{int32(1)}, {int32(2)}}, ch.Rows())

	ch.Reset()
	require.Equal(t, 0, ch.RowCount())
	require.False(t, ch.IsFull())
	require.False(t, ch.Column(0).IsValid(0))
}
