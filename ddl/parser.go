package ddl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer/stateful"

	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
)

var (
	lex = stateful.MustSimple([]stateful.Rule{
		{`Ident`, "((?i)[a-zA-Z_][a-zA-Z_0-9]*)|`[^`]*`", nil},
		{`Number`, `[-+]?\d*\.?\d+([eE][-+]?\d+)?`, nil},
		{`String`, `'[^']*'|"[^"]*"`, nil},
		{`Punct`, `[-+*/%,.()=<>;\[\]]`, nil},
		{`Whitespace`, `\s+`, nil},
	})
	options = []participle.Option{
		participle.Lexer(lex),
		participle.CaseInsensitive("Ident"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
		participle.Unquote("String"),
	}
	parser     = participle.MustBuild(&AST{}, options...)
	typeParser = participle.MustBuild(&TypeDef{}, options...)
)

// Parse a CREATE TABLE or DROP TABLE statement.
func Parse(sql string) (*AST, error) {
	ast := &AST{}
	if err := parser.ParseString("", sql, ast); err != nil {
		return nil, errors.NewInvalidStatementError(err.Error())
	}
	return ast, nil
}

// ParseType parses a standalone column type such as "STRUCT(a INTEGER, b VARCHAR[])".
func ParseType(s string) (common.ColumnType, error) {
	td := &TypeDef{}
	if err := typeParser.ParseString("", s, td); err != nil {
		return common.ColumnType{}, errors.NewInvalidStatementError(err.Error())
	}
	return td.ToColumnType()
}
