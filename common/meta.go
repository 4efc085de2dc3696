package common

import (
	"fmt"
	"regexp"
	"strings"
)

type Type int

const (
	TypeUnknown Type = iota
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeUTinyInt
	TypeUSmallInt
	TypeUInt
	TypeUBigInt
	TypeHugeInt
	TypeUHugeInt
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeVarchar
	TypeBlob
	TypeDate
	TypeTime
	TypeTimeTz
	TypeTimestamp
	TypeTimestampTz
	TypeInterval
	TypeUUID
	TypeEnum
	TypeArray
	TypeList
	TypeStruct
	TypeUnion
	TypeMap
)

var typeNames = map[Type]string{
	TypeUnknown:     "UNKNOWN",
	TypeBoolean:     "BOOLEAN",
	TypeTinyInt:     "TINYINT",
	TypeSmallInt:    "SMALLINT",
	TypeInt:         "INTEGER",
	TypeBigInt:      "BIGINT",
	TypeUTinyInt:    "UTINYINT",
	TypeUSmallInt:   "USMALLINT",
	TypeUInt:        "UINTEGER",
	TypeUBigInt:     "UBIGINT",
	TypeHugeInt:     "HUGEINT",
	TypeUHugeInt:    "UHUGEINT",
	TypeFloat:       "FLOAT",
	TypeDouble:      "DOUBLE",
	TypeDecimal:     "DECIMAL",
	TypeVarchar:     "VARCHAR",
	TypeBlob:        "BLOB",
	TypeDate:        "DATE",
	TypeTime:        "TIME",
	TypeTimeTz:      "TIMETZ",
	TypeTimestamp:   "TIMESTAMP",
	TypeTimestampTz: "TIMESTAMPTZ",
	TypeInterval:    "INTERVAL",
	TypeUUID:        "UUID",
	TypeEnum:        "ENUM",
	TypeArray:       "ARRAY",
	TypeList:        "LIST",
	TypeStruct:      "STRUCT",
	TypeUnion:       "UNION",
	TypeMap:         "MAP",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE(%d)", int(t))
}

// TimestampUnit is the resolution a TIMESTAMP column stores its epoch offset in.
type TimestampUnit int

const (
	UnitMicros TimestampUnit = iota
	UnitSeconds
	UnitMillis
	UnitNanos
)

const (
	DefaultDecimalPrecision = 18
	DefaultDecimalScale     = 3
	MaxDecimalPrecision     = 38
)

var (
	BooleanColumnType     = ColumnType{Type: TypeBoolean}
	TinyIntColumnType     = ColumnType{Type: TypeTinyInt}
	SmallIntColumnType    = ColumnType{Type: TypeSmallInt}
	IntColumnType         = ColumnType{Type: TypeInt}
	BigIntColumnType      = ColumnType{Type: TypeBigInt}
	UTinyIntColumnType    = ColumnType{Type: TypeUTinyInt}
	USmallIntColumnType   = ColumnType{Type: TypeUSmallInt}
	UIntColumnType        = ColumnType{Type: TypeUInt}
	UBigIntColumnType     = ColumnType{Type: TypeUBigInt}
	HugeIntColumnType     = ColumnType{Type: TypeHugeInt}
	UHugeIntColumnType    = ColumnType{Type: TypeUHugeInt}
	FloatColumnType       = ColumnType{Type: TypeFloat}
	DoubleColumnType      = ColumnType{Type: TypeDouble}
	VarcharColumnType     = ColumnType{Type: TypeVarchar}
	BlobColumnType        = ColumnType{Type: TypeBlob}
	DateColumnType        = ColumnType{Type: TypeDate}
	TimeColumnType        = ColumnType{Type: TypeTime}
	TimeTzColumnType      = ColumnType{Type: TypeTimeTz}
	TimestampColumnType   = ColumnType{Type: TypeTimestamp, TimestampUnit: UnitMicros}
	TimestampTzColumnType = ColumnType{Type: TypeTimestampTz, TimestampUnit: UnitMicros}
	IntervalColumnType    = ColumnType{Type: TypeInterval}
	UUIDColumnType        = ColumnType{Type: TypeUUID}

	// ColumnTypesByName allows lookup of non-parameterised ColumnType by its SQL name, including aliases.
	ColumnTypesByName = map[string]ColumnType{
		"BOOLEAN":      BooleanColumnType,
		"BOOL":         BooleanColumnType,
		"TINYINT":      TinyIntColumnType,
		"SMALLINT":     SmallIntColumnType,
		"INTEGER":      IntColumnType,
		"INT":          IntColumnType,
		"BIGINT":       BigIntColumnType,
		"UTINYINT":     UTinyIntColumnType,
		"USMALLINT":    USmallIntColumnType,
		"UINTEGER":     UIntColumnType,
		"UBIGINT":      UBigIntColumnType,
		"HUGEINT":      HugeIntColumnType,
		"UHUGEINT":     UHugeIntColumnType,
		"FLOAT":        FloatColumnType,
		"REAL":         FloatColumnType,
		"DOUBLE":       DoubleColumnType,
		"VARCHAR":      VarcharColumnType,
		"TEXT":         VarcharColumnType,
		"STRING":       VarcharColumnType,
		"BLOB":         BlobColumnType,
		"BYTEA":        BlobColumnType,
		"DATE":         DateColumnType,
		"TIME":         TimeColumnType,
		"TIMETZ":       TimeTzColumnType,
		"TIMESTAMP":    TimestampColumnType,
		"TIMESTAMP_S":  NewTimestampColumnType(UnitSeconds),
		"TIMESTAMP_MS": NewTimestampColumnType(UnitMillis),
		"TIMESTAMP_US": TimestampColumnType,
		"TIMESTAMP_NS": NewTimestampColumnType(UnitNanos),
		"TIMESTAMPTZ":  TimestampTzColumnType,
		"INTERVAL":     IntervalColumnType,
		"UUID":         UUIDColumnType,
	}
)

// ColumnType describes the storage shape of a column. Nested kinds carry their children: the element of an ARRAY or
// LIST, the fields of a STRUCT, the members of a UNION, and the key and value of a MAP.
type ColumnType struct {
	Type          Type
	DecPrecision  int           `json:",omitempty"`
	DecScale      int           `json:",omitempty"`
	TimestampUnit TimestampUnit `json:",omitempty"`
	EnumValues    []string      `json:",omitempty"`
	ArrayLength   int           `json:",omitempty"`
	Children      []ColumnInfo  `json:",omitempty"`
}

type ColumnInfo struct {
	Name string
	ColumnType
}

func NewDecimalColumnType(precision int, scale int) ColumnType {
	return ColumnType{
		Type:         TypeDecimal,
		DecPrecision: precision,
		DecScale:     scale,
	}
}

func NewTimestampColumnType(unit TimestampUnit) ColumnType {
	return ColumnType{Type: TypeTimestamp, TimestampUnit: unit}
}

func NewEnumColumnType(values ...string) ColumnType {
	return ColumnType{Type: TypeEnum, EnumValues: values}
}

func NewArrayColumnType(element ColumnType, length int) ColumnType {
	return ColumnType{Type: TypeArray, ArrayLength: length, Children: []ColumnInfo{{Name: "element", ColumnType: element}}}
}

func NewListColumnType(element ColumnType) ColumnType {
	return ColumnType{Type: TypeList, Children: []ColumnInfo{{Name: "element", ColumnType: element}}}
}

func NewStructColumnType(fields ...ColumnInfo) ColumnType {
	return ColumnType{Type: TypeStruct, Children: fields}
}

func NewUnionColumnType(members ...ColumnInfo) ColumnType {
	return ColumnType{Type: TypeUnion, Children: members}
}

func NewMapColumnType(key ColumnType, value ColumnType) ColumnType {
	return ColumnType{Type: TypeMap, Children: []ColumnInfo{{Name: "key", ColumnType: key}, {Name: "value", ColumnType: value}}}
}

// IsNested returns true for the kinds whose values are built from child values.
func (c ColumnType) IsNested() bool {
	switch c.Type {
	case TypeArray, TypeList, TypeStruct, TypeUnion, TypeMap:
		return true
	default:
		return false
	}
}

// ElementType is the type of the elements of an ARRAY, LIST or MAP. The element of a MAP is a key/value STRUCT.
func (c ColumnType) ElementType() ColumnType {
	switch c.Type {
	case TypeArray, TypeList:
		return c.Children[0].ColumnType
	case TypeMap:
		return NewStructColumnType(c.Children...)
	default:
		panic(fmt.Sprintf("type %s has no element type", c.Type))
	}
}

// ChildNames returns the names of the fields of a STRUCT or the members of a UNION.
func (c ColumnType) ChildNames() []string {
	names := make([]string, len(c.Children))
	for i, child := range c.Children {
		names[i] = child.Name
	}
	return names
}

// ChildIndex returns the position of the named child, or -1. Names are matched case-insensitively.
func (c ColumnType) ChildIndex(name string) int {
	for i, child := range c.Children {
		if strings.EqualFold(child.Name, name) {
			return i
		}
	}
	return -1
}

// EnumIndex returns the position of the enum label, or -1.
func (c ColumnType) EnumIndex(label string) int {
	for i, v := range c.EnumValues {
		if v == label {
			return i
		}
	}
	return -1
}

// DecimalWidth is the size in bytes of the unscaled integer a DECIMAL of this precision is stored as.
func (c ColumnType) DecimalWidth() int {
	switch {
	case c.DecPrecision <= 4:
		return 2
	case c.DecPrecision <= 9:
		return 4
	case c.DecPrecision <= 18:
		return 8
	default:
		return 16
	}
}

// FixedWidth is the number of bytes one value occupies in a vector slot, or 0 for kinds stored elsewhere.
func (c ColumnType) FixedWidth() int {
	switch c.Type {
	case TypeBoolean, TypeTinyInt, TypeUTinyInt:
		return 1
	case TypeSmallInt, TypeUSmallInt:
		return 2
	case TypeInt, TypeUInt, TypeFloat, TypeDate, TypeEnum:
		return 4
	case TypeBigInt, TypeUBigInt, TypeDouble, TypeTime, TypeTimestamp, TypeTimestampTz:
		return 8
	case TypeTimeTz:
		return 12
	case TypeHugeInt, TypeUHugeInt, TypeInterval, TypeUUID:
		return 16
	case TypeDecimal:
		return c.DecimalWidth()
	case TypeVarchar, TypeBlob, TypeList, TypeMap:
		// offset and length
		return 8
	case TypeUnion:
		// member tag
		return 1
	default:
		return 0
	}
}

// Validate checks the invariants of the type tree.
func (c ColumnType) Validate() error {
	switch c.Type {
	case TypeUnknown:
		return fmt.Errorf("unknown column type")
	case TypeDecimal:
		if c.DecPrecision < 1 || c.DecPrecision > MaxDecimalPrecision {
			return fmt.Errorf("decimal precision must be between 1 and %d, got %d", MaxDecimalPrecision, c.DecPrecision)
		}
		if c.DecScale < 0 || c.DecScale > c.DecPrecision {
			return fmt.Errorf("decimal scale must be between 0 and the precision %d, got %d", c.DecPrecision, c.DecScale)
		}
	case TypeEnum:
		if len(c.EnumValues) == 0 {
			return fmt.Errorf("enum must declare at least one value")
		}
		seen := map[string]struct{}{}
		for _, v := range c.EnumValues {
			if _, ok := seen[v]; ok {
				return fmt.Errorf("duplicate enum value %q", v)
			}
			seen[v] = struct{}{}
		}
	case TypeArray:
		if c.ArrayLength < 1 {
			return fmt.Errorf("array length must be >= 1, got %d", c.ArrayLength)
		}
		if len(c.Children) != 1 {
			return fmt.Errorf("array must have exactly one element type")
		}
	case TypeList:
		if len(c.Children) != 1 {
			return fmt.Errorf("list must have exactly one element type")
		}
	case TypeMap:
		if len(c.Children) != 2 {
			return fmt.Errorf("map must have a key and a value type")
		}
	case TypeStruct, TypeUnion:
		if len(c.Children) == 0 {
			return fmt.Errorf("%s must have at least one child", c.Type)
		}
		if c.Type == TypeUnion && len(c.Children) > 255 {
			return fmt.Errorf("union cannot have more than 255 members")
		}
		seen := map[string]struct{}{}
		for _, child := range c.Children {
			lower := strings.ToLower(child.Name)
			if _, ok := seen[lower]; ok {
				return fmt.Errorf("duplicate %s child name %s", strings.ToLower(c.Type.String()), child.Name)
			}
			seen[lower] = struct{}{}
		}
	}
	for _, child := range c.Children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

var simpleIdent = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z_0-9]*$`)

func quoteIdent(name string) string {
	if simpleIdent.MatchString(name) {
		return name
	}
	return "`" + name + "`"
}

// String renders the type in the DDL syntax understood by the ddl package.
func (c ColumnType) String() string {
	switch c.Type {
	case TypeDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.DecPrecision, c.DecScale)
	case TypeTimestamp:
		switch c.TimestampUnit {
		case UnitSeconds:
			return "TIMESTAMP_S"
		case UnitMillis:
			return "TIMESTAMP_MS"
		case UnitNanos:
			return "TIMESTAMP_NS"
		default:
			return "TIMESTAMP"
		}
	case TypeEnum:
		quoted := make([]string, len(c.EnumValues))
		for i, v := range c.EnumValues {
			quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		return "ENUM(" + strings.Join(quoted, ", ") + ")"
	case TypeArray:
		return fmt.Sprintf("%s[%d]", c.Children[0].ColumnType.String(), c.ArrayLength)
	case TypeList:
		return c.Children[0].ColumnType.String() + "[]"
	case TypeMap:
		return fmt.Sprintf("MAP(%s, %s)", c.Children[0].ColumnType.String(), c.Children[1].ColumnType.String())
	case TypeStruct, TypeUnion:
		sb := strings.Builder{}
		sb.WriteString(c.Type.String())
		sb.WriteString("(")
		for i, child := range c.Children {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(quoteIdent(child.Name))
			sb.WriteString(" ")
			sb.WriteString(child.ColumnType.String())
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return c.Type.String()
	}
}

// TableInfo is the resolved schema of a table.
type TableInfo struct {
	ID             uint64
	SchemaName     string
	Name           string
	ColumnNames    []string
	ColumnTypes    []ColumnType
	NotNullCols    []bool    `json:",omitempty"`
	ColumnDefaults []*string `json:",omitempty"`
}

func (i *TableInfo) String() string {
	return fmt.Sprintf("table[name=%s.%s,id=%d]", i.SchemaName, i.Name, i.ID)
}

// QualifiedName returns schema.table.
func (i *TableInfo) QualifiedName() string {
	return i.SchemaName + "." + i.Name
}

// ColumnIndex returns the position of the named column, or -1.
func (i *TableInfo) ColumnIndex(name string) int {
	for idx, n := range i.ColumnNames {
		if strings.EqualFold(n, name) {
			return idx
		}
	}
	return -1
}
