// Package ddl contains the parser for table definitions and column types.
//
//nolint:govet
package ddl

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
)

// DefaultSchemaName is used when a table reference has no schema.
const DefaultSchemaName = "main"

// A Ref to a table, optionally qualified by its schema.
type Ref struct {
	Path []string `@Ident ("." @Ident)?`
}

func (r *Ref) String() string {
	return strings.Join(r.Path, ".")
}

// SchemaAndName returns the schema and table name, defaulting the schema.
func (r *Ref) SchemaAndName() (string, string) {
	if len(r.Path) == 1 {
		return DefaultSchemaName, unquoteIdent(r.Path[0])
	}
	return unquoteIdent(r.Path[0]), unquoteIdent(r.Path[1])
}

// Literal is the value of a DEFAULT clause.
type Literal struct {
	Null   bool    `  @"NULL"`
	Bool   *string `| @("TRUE" | "FALSE")`
	Number *string `| @Number`
	String *string `| @String`
}

// Text returns the literal as text, nil for NULL.
func (l *Literal) Text() *string {
	switch {
	case l.Bool != nil:
		s := strings.ToUpper(*l.Bool)
		return &s
	case l.Number != nil:
		return l.Number
	case l.String != nil:
		return l.String
	default:
		return nil
	}
}

type FieldDef struct {
	Name string   `@Ident`
	Type *TypeDef `@@`
}

// BaseType is a type without array or list suffixes.
type BaseType struct {
	Struct []*FieldDef `  "STRUCT" "(" @@ ("," @@)* ")"`
	Union  []*FieldDef `| "UNION" "(" @@ ("," @@)* ")"`
	Map    []*TypeDef  `| "MAP" "(" @@ "," @@ ")"`
	Enum   []string    `| "ENUM" "(" @String ("," @String)* ")"`
	Name   string      `| @Ident`
	Params []int       `  ("(" @Number ("," @Number)* ")")?` // Optional parameters to the type(x [, x, ...])
}

// Dim is an array suffix: "[n]" for a fixed size array or "[]" for a list.
type Dim struct {
	Length *int   `"[" @Number?`
	Close  string `@"]"`
}

type TypeDef struct {
	Pos lexer.Position

	Base *BaseType `@@`
	Dims []*Dim    `@@*`
}

var timestampPrecisions = map[int]common.TimestampUnit{
	0: common.UnitSeconds,
	3: common.UnitMillis,
	6: common.UnitMicros,
	9: common.UnitNanos,
}

func (t *TypeDef) ToColumnType() (common.ColumnType, error) {
	ct, err := t.Base.toColumnType(t.Pos)
	if err != nil {
		return common.ColumnType{}, err
	}
	for _, dim := range t.Dims {
		if dim.Length == nil {
			ct = common.NewListColumnType(ct)
		} else {
			ct = common.NewArrayColumnType(ct, *dim.Length)
		}
	}
	if err := ct.Validate(); err != nil {
		return common.ColumnType{}, invalidStatement(t.Pos, err.Error())
	}
	return ct, nil
}

func (b *BaseType) toColumnType(pos lexer.Position) (common.ColumnType, error) {
	switch {
	case b.Struct != nil:
		fields, err := toColumnInfos(b.Struct)
		if err != nil {
			return common.ColumnType{}, err
		}
		return common.NewStructColumnType(fields...), nil
	case b.Union != nil:
		members, err := toColumnInfos(b.Union)
		if err != nil {
			return common.ColumnType{}, err
		}
		return common.NewUnionColumnType(members...), nil
	case b.Map != nil:
		key, err := b.Map[0].ToColumnType()
		if err != nil {
			return common.ColumnType{}, err
		}
		value, err := b.Map[1].ToColumnType()
		if err != nil {
			return common.ColumnType{}, err
		}
		return common.NewMapColumnType(key, value), nil
	case b.Enum != nil:
		return common.NewEnumColumnType(b.Enum...), nil
	}
	name := strings.ToUpper(b.Name)
	switch name {
	case "DECIMAL", "NUMERIC":
		switch len(b.Params) {
		case 0:
			return common.NewDecimalColumnType(common.DefaultDecimalPrecision, common.DefaultDecimalScale), nil
		case 1:
			return common.NewDecimalColumnType(b.Params[0], 0), nil
		case 2:
			return common.NewDecimalColumnType(b.Params[0], b.Params[1]), nil
		default:
			return common.ColumnType{}, invalidStatement(pos, "expected DECIMAL(precision, scale)")
		}
	case "TIMESTAMP":
		if len(b.Params) == 1 {
			unit, ok := timestampPrecisions[b.Params[0]]
			if !ok {
				return common.ColumnType{}, invalidStatement(pos, "TIMESTAMP precision must be 0, 3, 6 or 9")
			}
			return common.NewTimestampColumnType(unit), nil
		}
	}
	ct, ok := common.ColumnTypesByName[name]
	if !ok {
		return common.ColumnType{}, invalidStatement(pos, fmt.Sprintf("unknown type %s", b.Name))
	}
	if len(b.Params) != 0 {
		return common.ColumnType{}, invalidStatement(pos, fmt.Sprintf("type %s does not take parameters", name))
	}
	return ct, nil
}

func toColumnInfos(fields []*FieldDef) ([]common.ColumnInfo, error) {
	infos := make([]common.ColumnInfo, len(fields))
	for i, f := range fields {
		ct, err := f.Type.ToColumnType()
		if err != nil {
			return nil, err
		}
		infos[i] = common.ColumnInfo{Name: unquoteIdent(f.Name), ColumnType: ct}
	}
	return infos, nil
}

type ColumnDef struct {
	Pos lexer.Position

	Name    string   `@Ident`
	Type    *TypeDef `@@`
	NotNull bool     `( @("NOT" "NULL")`
	Default *Literal `| "DEFAULT" @@ )*`
}

// CreateTable statement.
type CreateTable struct {
	Name    *Ref         `@@`
	Columns []*ColumnDef `"(" @@ ("," @@)* ")"`
}

// ToTableInfo builds the table described by the statement. The ID is assigned by the store.
func (c *CreateTable) ToTableInfo() (*common.TableInfo, error) {
	schemaName, tableName := c.Name.SchemaAndName()
	info := &common.TableInfo{
		SchemaName:     schemaName,
		Name:           tableName,
		ColumnNames:    make([]string, len(c.Columns)),
		ColumnTypes:    make([]common.ColumnType, len(c.Columns)),
		NotNullCols:    make([]bool, len(c.Columns)),
		ColumnDefaults: make([]*string, len(c.Columns)),
	}
	seen := map[string]struct{}{}
	for i, col := range c.Columns {
		name := unquoteIdent(col.Name)
		lower := strings.ToLower(name)
		if _, ok := seen[lower]; ok {
			return nil, invalidStatement(col.Pos, fmt.Sprintf("duplicate column name %s", name))
		}
		seen[lower] = struct{}{}
		ct, err := col.Type.ToColumnType()
		if err != nil {
			return nil, err
		}
		info.ColumnNames[i] = name
		info.ColumnTypes[i] = ct
		info.NotNullCols[i] = col.NotNull
		if col.Default != nil {
			text := col.Default.Text()
			if text != nil {
				if _, err := common.ParseLiteral(ct, *text); err != nil {
					return nil, invalidStatement(col.Pos, fmt.Sprintf("invalid default for column %s: %v", name, err))
				}
			}
			info.ColumnDefaults[i] = text
		}
	}
	return info, nil
}

// DropTable statement.
type DropTable struct {
	Name *Ref `@@`
}

// AST root.
type AST struct {
	Create *CreateTable `(  "CREATE" "TABLE" @@`
	Drop   *DropTable   ` | "DROP" "TABLE" @@ ) ";"?`
}

func invalidStatement(pos lexer.Position, msg string) error {
	return errors.NewInvalidStatementError(fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column, msg))
}

func unquoteIdent(ident string) string {
	if len(ident) >= 2 && strings.HasPrefix(ident, "`") && strings.HasSuffix(ident, "`") {
		return ident[1 : len(ident)-1]
	}
	return ident
}
