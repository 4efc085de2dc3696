package export

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
)

var timestampUnits = map[common.TimestampUnit]arrow.TimeUnit{
	common.UnitSeconds: arrow.Second,
	common.UnitMillis:  arrow.Millisecond,
	common.UnitMicros:  arrow.Microsecond,
	common.UnitNanos:   arrow.Nanosecond,
}

// ArrowSchema maps the columns of a table to an Arrow schema. HUGEINT, UHUGEINT and TIMETZ have no Arrow
// counterpart and are exported as strings, ENUM as its labels.
func ArrowSchema(info *common.TableInfo) *arrow.Schema {
	fields := make([]arrow.Field, len(info.ColumnTypes))
	for i, colType := range info.ColumnTypes {
		fields[i] = arrow.Field{Name: info.ColumnNames[i], Type: ArrowType(colType), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func ArrowType(colType common.ColumnType) arrow.DataType {
	switch colType.Type {
	case common.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case common.TypeTinyInt:
		return arrow.PrimitiveTypes.Int8
	case common.TypeSmallInt:
		return arrow.PrimitiveTypes.Int16
	case common.TypeInt:
		return arrow.PrimitiveTypes.Int32
	case common.TypeBigInt:
		return arrow.PrimitiveTypes.Int64
	case common.TypeUTinyInt:
		return arrow.PrimitiveTypes.Uint8
	case common.TypeUSmallInt:
		return arrow.PrimitiveTypes.Uint16
	case common.TypeUInt:
		return arrow.PrimitiveTypes.Uint32
	case common.TypeUBigInt:
		return arrow.PrimitiveTypes.Uint64
	case common.TypeFloat:
		return arrow.PrimitiveTypes.Float32
	case common.TypeDouble:
		return arrow.PrimitiveTypes.Float64
	case common.TypeDecimal:
		return &arrow.Decimal128Type{Precision: int32(colType.DecPrecision), Scale: int32(colType.DecScale)}
	case common.TypeHugeInt, common.TypeUHugeInt, common.TypeTimeTz, common.TypeVarchar, common.TypeEnum:
		return arrow.BinaryTypes.String
	case common.TypeBlob:
		return arrow.BinaryTypes.Binary
	case common.TypeDate:
		return arrow.FixedWidthTypes.Date32
	case common.TypeTime:
		return arrow.FixedWidthTypes.Time64us
	case common.TypeTimestamp:
		return &arrow.TimestampType{Unit: timestampUnits[colType.TimestampUnit]}
	case common.TypeTimestampTz:
		return &arrow.TimestampType{Unit: timestampUnits[colType.TimestampUnit], TimeZone: "UTC"}
	case common.TypeInterval:
		return arrow.FixedWidthTypes.MonthDayNanoInterval
	case common.TypeUUID:
		return &arrow.FixedSizeBinaryType{ByteWidth: 16}
	case common.TypeArray:
		return arrow.FixedSizeListOf(int32(colType.ArrayLength), ArrowType(colType.Children[0].ColumnType))
	case common.TypeList:
		return arrow.ListOf(ArrowType(colType.Children[0].ColumnType))
	case common.TypeMap:
		return arrow.MapOf(ArrowType(colType.Children[0].ColumnType), ArrowType(colType.Children[1].ColumnType))
	case common.TypeStruct:
		return arrow.StructOf(childFields(colType)...)
	case common.TypeUnion:
		codes := make([]arrow.UnionTypeCode, len(colType.Children))
		for i := range codes {
			codes[i] = arrow.UnionTypeCode(i)
		}
		return arrow.DenseUnionOf(childFields(colType), codes)
	default:
		panic(fmt.Sprintf("unexpected column type %s", colType))
	}
}

func childFields(colType common.ColumnType) []arrow.Field {
	fields := make([]arrow.Field, len(colType.Children))
	for i, child := range colType.Children {
		fields[i] = arrow.Field{Name: child.Name, Type: ArrowType(child.ColumnType), Nullable: true}
	}
	return fields
}

// BuildRecord converts rows, as returned by a store scan, into one Arrow record. The caller must release it.
func BuildRecord(mem memory.Allocator, info *common.TableInfo, rows [][]interface{}) (arrow.Record, error) {
	rb := array.NewRecordBuilder(mem, ArrowSchema(info))
	defer rb.Release()
	for _, row := range rows {
		if len(row) != len(info.ColumnTypes) {
			return nil, errors.Errorf("row has %d values, table %s has %d columns", len(row), info.QualifiedName(),
				len(info.ColumnTypes))
		}
		for i, v := range row {
			if err := appendValue(rb.Field(i), info.ColumnTypes[i], v); err != nil {
				return nil, errors.Wrapf(err, "column %s", info.ColumnNames[i])
			}
		}
	}
	return rb.NewRecord(), nil
}

// WriteArrowIPC writes rows as a single record batch in the Arrow IPC stream format.
func WriteArrowIPC(w io.Writer, info *common.TableInfo, rows [][]interface{}) error {
	mem := memory.NewGoAllocator()
	rec, err := BuildRecord(mem, info, rows)
	if err != nil {
		return err
	}
	defer rec.Release()
	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(writer.Close())
}

func appendValue(b array.Builder, colType common.ColumnType, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	ok := true
	switch builder := b.(type) {
	case *array.BooleanBuilder:
		var val bool
		val, ok = v.(bool)
		builder.Append(val)
	case *array.Int8Builder:
		var val int8
		val, ok = v.(int8)
		builder.Append(val)
	case *array.Int16Builder:
		var val int16
		val, ok = v.(int16)
		builder.Append(val)
	case *array.Int32Builder:
		var val int32
		val, ok = v.(int32)
		builder.Append(val)
	case *array.Int64Builder:
		var val int64
		val, ok = v.(int64)
		builder.Append(val)
	case *array.Uint8Builder:
		var val uint8
		val, ok = v.(uint8)
		builder.Append(val)
	case *array.Uint16Builder:
		var val uint16
		val, ok = v.(uint16)
		builder.Append(val)
	case *array.Uint32Builder:
		var val uint32
		val, ok = v.(uint32)
		builder.Append(val)
	case *array.Uint64Builder:
		var val uint64
		val, ok = v.(uint64)
		builder.Append(val)
	case *array.Float32Builder:
		var val float32
		val, ok = v.(float32)
		builder.Append(val)
	case *array.Float64Builder:
		var val float64
		val, ok = v.(float64)
		builder.Append(val)
	case *array.Decimal128Builder:
		var d decimal.Decimal
		d, ok = v.(decimal.Decimal)
		if ok {
			builder.Append(decimal128.FromBigInt(d.Shift(int32(colType.DecScale)).BigInt()))
		}
	case *array.StringBuilder:
		var s string
		s, ok = stringValue(v)
		builder.Append(s)
	case *array.BinaryBuilder:
		var val []byte
		val, ok = v.([]byte)
		builder.Append(val)
	case *array.Date32Builder:
		var val common.Date
		val, ok = v.(common.Date)
		builder.Append(arrow.Date32(val.Days))
	case *array.Time64Builder:
		var val common.Time
		val, ok = v.(common.Time)
		builder.Append(arrow.Time64(val.Micros))
	case *array.TimestampBuilder:
		var val time.Time
		val, ok = v.(time.Time)
		builder.Append(arrow.Timestamp(common.TimestampFromTime(val, colType.TimestampUnit).Value))
	case *array.MonthDayNanoIntervalBuilder:
		var val common.Interval
		val, ok = v.(common.Interval)
		builder.Append(arrow.MonthDayNanoInterval{Months: val.Months, Days: val.Days, Nanoseconds: val.Micros * 1000})
	case *array.FixedSizeBinaryBuilder:
		var val uuid.UUID
		val, ok = v.(uuid.UUID)
		builder.Append(val[:])
	case *array.FixedSizeListBuilder:
		elems, isSlice := v.([]interface{})
		if !isSlice || len(elems) != colType.ArrayLength {
			ok = false
			break
		}
		builder.Append(true)
		return appendElements(builder.ValueBuilder(), colType.Children[0].ColumnType, elems)
	case *array.MapBuilder:
		m, isMap := v.(common.Map)
		if !isMap {
			ok = false
			break
		}
		builder.Append(true)
		for _, entry := range m {
			if entry.Key == nil {
				return errors.NewInvalidMapKeyError("arrow map keys cannot be null")
			}
			if err := appendValue(builder.KeyBuilder(), colType.Children[0].ColumnType, entry.Key); err != nil {
				return err
			}
			if err := appendValue(builder.ItemBuilder(), colType.Children[1].ColumnType, entry.Value); err != nil {
				return err
			}
		}
	case *array.ListBuilder:
		elems, isSlice := v.([]interface{})
		if !isSlice {
			ok = false
			break
		}
		builder.Append(true)
		return appendElements(builder.ValueBuilder(), colType.Children[0].ColumnType, elems)
	case *array.StructBuilder:
		st, isStruct := v.(common.Struct)
		if !isStruct || len(st) != len(colType.Children) {
			ok = false
			break
		}
		builder.Append(true)
		for i, f := range st {
			if err := appendValue(builder.FieldBuilder(i), colType.Children[i].ColumnType, f.Value); err != nil {
				return err
			}
		}
	case *array.DenseUnionBuilder:
		u, isUnion := v.(common.Union)
		if !isUnion {
			ok = false
			break
		}
		index := colType.ChildIndex(u.Tag)
		if index == -1 {
			return errors.NewUnknownUnionTagError(u.Tag, colType.ChildNames())
		}
		builder.Append(arrow.UnionTypeCode(index))
		return appendValue(builder.Child(index), colType.Children[index].ColumnType, u.Value)
	default:
		return errors.Errorf("no arrow builder for column type %s", colType)
	}
	if !ok {
		return errors.Errorf("unexpected value %v of type %T for column type %s", v, v, colType)
	}
	return nil
}

func appendElements(b array.Builder, elemType common.ColumnType, elems []interface{}) error {
	for _, elem := range elems {
		if err := appendValue(b, elemType, elem); err != nil {
			return err
		}
	}
	return nil
}

// stringValue renders the kinds exported as strings.
func stringValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case *big.Int:
		return val.String(), true
	case common.TimeTz:
		return val.String(), true
	default:
		return "", false
	}
}
