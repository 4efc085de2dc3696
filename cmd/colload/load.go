package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/squareup/colload/appender"
	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
	"muzzammil.xyz/jsonc"
)

type LoadCommand struct {
	Table string `arg:"" help:"Table to load, optionally qualified with its schema"`
	File  string `arg:"" type:"existingfile" help:"File of JSON rows, either arrays of column values or objects keyed by column name. Comments are allowed"`
}

func (c *LoadCommand) Run(e *env) error {
	b, err := os.ReadFile(c.File)
	if err != nil {
		return errors.WithStack(err)
	}
	schemaName, tableName := splitTableName(c.Table)
	app, err := appender.New(e.store, schemaName, tableName, appender.WithConfig(e.cfg),
		appender.WithMetricsFactory(e.metrics))
	if err != nil {
		return err
	}
	numRows, err := loadRows(app, jsonc.ToJSON(b))
	if err != nil {
		if cerr := app.Close(); cerr != nil {
			log.Warnf("failed to store rows loaded into %s before the error: %v", app.TableInfo(), cerr)
			return errors.Wrapf(err, "the %d rows before it were not stored (%v)", numRows, cerr)
		}
		return err
	}
	if err := app.Close(); err != nil {
		return err
	}
	log.Debugf("loaded %d rows into %s", numRows, app.TableInfo())
	fmt.Fprintf(e.out, "loaded %d rows\n", numRows)
	return nil
}

// loadRows appends every JSON value of data as one row.
func loadRows(app *appender.Appender, data []byte) (int, error) {
	info := app.TableInfo()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	numRows := 0
	for {
		var raw interface{}
		if err := dec.Decode(&raw); err == io.EOF {
			return numRows, nil
		} else if err != nil {
			return numRows, errors.WithStack(err)
		}
		values, err := rowValues(info, raw)
		if err != nil {
			return numRows, errors.Wrapf(err, "row %d", numRows+1)
		}
		if err := app.AppendRow(values...); err != nil {
			return numRows, errors.Wrapf(err, "row %d", numRows+1)
		}
		numRows++
	}
}

func rowValues(info *common.TableInfo, raw interface{}) ([]interface{}, error) {
	values := make([]interface{}, len(info.ColumnTypes))
	switch row := raw.(type) {
	case []interface{}:
		if len(row) != len(values) {
			return nil, errors.Errorf("expected %d values, got %d", len(values), len(row))
		}
		for i, v := range row {
			val, err := fromJSON(info.ColumnTypes[i], v)
			if err != nil {
				return nil, errors.Wrapf(err, "column %s", info.ColumnNames[i])
			}
			values[i] = val
		}
	case map[string]interface{}:
		for name, v := range row {
			i := info.ColumnIndex(name)
			if i == -1 {
				return nil, errors.Errorf("unknown column %s", name)
			}
			val, err := fromJSON(info.ColumnTypes[i], v)
			if err != nil {
				return nil, errors.Wrapf(err, "column %s", name)
			}
			values[i] = val
		}
	default:
		return nil, errors.Errorf("a row must be a JSON array or object, got %T", raw)
	}
	return values, nil
}

// fromJSON converts a decoded JSON value into a value the appender accepts for colType. Absent struct fields are
// null, a union is an object with a single member.
func fromJSON(colType common.ColumnType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case bool:
		if colType.Type != common.TypeBoolean {
			return nil, errors.Errorf("unexpected boolean for %s", colType)
		}
		return val, nil
	case json.Number:
		return common.ParseLiteral(colType, val.String())
	case string:
		return common.ParseLiteral(colType, val)
	case []interface{}:
		if colType.Type != common.TypeArray && colType.Type != common.TypeList {
			return nil, errors.Errorf("unexpected array for %s", colType)
		}
		elemType := colType.ElementType()
		elems := make([]interface{}, len(val))
		for i, elem := range val {
			conv, err := fromJSON(elemType, elem)
			if err != nil {
				return nil, err
			}
			elems[i] = conv
		}
		return elems, nil
	case map[string]interface{}:
		return objectFromJSON(colType, val)
	default:
		return nil, errors.Errorf("unexpected JSON value %v", v)
	}
}

func objectFromJSON(colType common.ColumnType, obj map[string]interface{}) (interface{}, error) {
	switch colType.Type {
	case common.TypeStruct:
		st := make(common.Struct, len(colType.Children))
		for i, child := range colType.Children {
			st[i].Name = child.Name
		}
		for name, v := range obj {
			i := colType.ChildIndex(name)
			if i == -1 {
				return nil, errors.Errorf("unknown field %s of %s", name, colType)
			}
			conv, err := fromJSON(colType.Children[i].ColumnType, v)
			if err != nil {
				return nil, err
			}
			st[i].Value = conv
		}
		return st, nil
	case common.TypeUnion:
		if len(obj) != 1 {
			return nil, errors.Errorf("a union value must have exactly one member, got %d", len(obj))
		}
		for tag, v := range obj {
			i := colType.ChildIndex(tag)
			if i == -1 {
				return nil, errors.NewUnknownUnionTagError(tag, colType.ChildNames())
			}
			conv, err := fromJSON(colType.Children[i].ColumnType, v)
			if err != nil {
				return nil, err
			}
			return common.Union{Tag: tag, Value: conv}, nil
		}
	case common.TypeMap:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(common.Map, len(keys))
		for i, k := range keys {
			key, err := common.ParseLiteral(colType.Children[0].ColumnType, k)
			if err != nil {
				return nil, err
			}
			val, err := fromJSON(colType.Children[1].ColumnType, obj[k])
			if err != nil {
				return nil, err
			}
			m[i] = common.MapEntry{Key: key, Value: val}
		}
		return m, nil
	}
	return nil, errors.Errorf("unexpected object for %s", colType)
}
