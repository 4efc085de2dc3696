package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/repr"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
	"github.com/squareup/colload/export"
)

type ExecCommand struct {
	Statements []string `arg:"" help:"Statements to execute"`
}

func (c *ExecCommand) Run(e *env) error {
	for _, statement := range c.Statements {
		if err := e.store.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}

type ScanCommand struct {
	Table string `arg:"" help:"Table to scan, optionally qualified with its schema"`
	Limit int    `help:"Maximum number of rows to print, -1 for all" default:"-1"`
	Repr  bool   `help:"Print rows as Go values"`
}

func (c *ScanCommand) Run(e *env) error {
	return scanTable(e, c.Table, c.Limit, c.Repr)
}

func scanTable(e *env, table string, limit int, goRepr bool) error {
	schemaName, tableName := splitTableName(table)
	info, err := e.store.ResolveSchema(schemaName, tableName)
	if err != nil {
		return err
	}
	rows, err := e.store.Scan(schemaName, tableName, limit)
	if err != nil {
		return err
	}
	if goRepr {
		for _, row := range rows {
			fmt.Fprintln(e.out, repr.String(row))
		}
		return nil
	}
	fmt.Fprintln(e.out, strings.Join(info.ColumnNames, "|"))
	for _, row := range rows {
		fmt.Fprintln(e.out, formatRow(row))
	}
	return nil
}

type ExportCommand struct {
	Table string `arg:"" help:"Table to export, optionally qualified with its schema"`
	File  string `arg:"" help:"Arrow IPC file to write"`
}

func (c *ExportCommand) Run(e *env) error {
	schemaName, tableName := splitTableName(c.Table)
	info, err := e.store.ResolveSchema(schemaName, tableName)
	if err != nil {
		return err
	}
	rows, err := e.store.Scan(schemaName, tableName, -1)
	if err != nil {
		return err
	}
	f, err := os.Create(c.File)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := export.WriteArrowIPC(f, info, rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WithStack(err)
	}
	fmt.Fprintf(e.out, "exported %d rows to %s\n", len(rows), c.File)
	return nil
}

type TablesCommand struct{}

func (c *TablesCommand) Run(e *env) error {
	for _, info := range e.store.Tables() {
		cols := make([]string, len(info.ColumnNames))
		for i, name := range info.ColumnNames {
			cols[i] = name + " " + info.ColumnTypes[i].String()
		}
		fmt.Fprintf(e.out, "%s(%s)\n", info.QualifiedName(), strings.Join(cols, ", "))
	}
	return nil
}

// splitTableName splits an optionally schema qualified table name. The schema is empty when not given.
func splitTableName(table string) (string, string) {
	if i := strings.IndexByte(table, '.'); i != -1 {
		return table[:i], table[i+1:]
	}
	return "", table
}

func formatRow(row []interface{}) string {
	cols := make([]string, len(row))
	for i, v := range row {
		cols[i] = formatValue(v)
	}
	return strings.Join(cols, "|")
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case []byte:
		return "\\x" + hex.EncodeToString(val)
	case []interface{}:
		elems := make([]string, len(val))
		for i, elem := range val {
			elems[i] = formatValue(elem)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case common.Struct:
		fields := make([]string, len(val))
		for i, f := range val {
			fields[i] = f.Name + ": " + formatValue(f.Value)
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case common.Map:
		entries := make([]string, len(val))
		for i, entry := range val {
			entries[i] = formatValue(entry.Key) + "=" + formatValue(entry.Value)
		}
		return "{" + strings.Join(entries, ", ") + "}"
	case common.Union:
		return val.Tag + ":" + formatValue(val.Value)
	default:
		return fmt.Sprint(v)
	}
}
