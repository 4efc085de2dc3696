package appender

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/squareup/colload/common"
	"github.com/squareup/colload/errors"
)

// appendContainer brackets a whole nested value. On error the caller truncates the contexts it opened.
func (a *Appender) appendContainer(colType common.ColumnType, v interface{}) error {
	switch colType.Type {
	case common.TypeStruct:
		return a.appendStruct(colType, v)
	case common.TypeUnion:
		u, ok := v.(common.Union)
		if !ok {
			return errors.NewTypeMismatchError(colType.String(), v)
		}
		if err := a.cursor.beginUnion(u.Tag); err != nil {
			return err
		}
		if err := a.Append(u.Value); err != nil {
			return err
		}
		return a.cursor.endUnion()
	case common.TypeArray, common.TypeList:
		values, ok := sliceValues(v)
		if !ok {
			return errors.NewTypeMismatchError(colType.String(), v)
		}
		return a.appendElements(values, nil)
	case common.TypeMap:
		entries, ok := mapEntries(v)
		if !ok {
			return errors.NewTypeMismatchError(colType.String(), v)
		}
		if err := a.cursor.beginArray(); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := a.cursor.beginStruct(); err != nil {
				return err
			}
			if err := a.Append(entry.Key); err != nil {
				return err
			}
			if err := a.Append(entry.Value); err != nil {
				return err
			}
			if err := a.cursor.endStruct(); err != nil {
				return err
			}
		}
		return a.cursor.endArray()
	default:
		panic(fmt.Sprintf("not a nested type %s", colType))
	}
}

// appendStruct writes the fields of a common.Struct or a map[string]interface{} in declaration order, matching
// names case-insensitively.
func (a *Appender) appendStruct(colType common.ColumnType, v interface{}) error {
	var fields common.Struct
	switch s := v.(type) {
	case common.Struct:
		fields = s
	case map[string]interface{}:
		for name, val := range s {
			fields = append(fields, common.Field{Name: name, Value: val})
		}
	default:
		return errors.NewTypeMismatchError(colType.String(), v)
	}
	numFields := len(colType.Children)
	values := make([]interface{}, numFields)
	present := make([]bool, numFields)
	supplied := 0
	for _, f := range fields {
		index := colType.ChildIndex(f.Name)
		if index == -1 {
			return errors.NewColloadErrorf(errors.TooManyFields, "Too many fields: struct has no field %s", f.Name)
		}
		if !present[index] {
			supplied++
		}
		values[index] = f.Value
		present[index] = true
	}
	if supplied < numFields {
		return errors.NewIncompleteFieldsError(numFields, supplied)
	}
	if err := a.cursor.beginStruct(); err != nil {
		return err
	}
	for _, val := range values {
		if err := a.Append(val); err != nil {
			return err
		}
	}
	return a.cursor.endStruct()
}

func sliceValues(v interface{}) ([]interface{}, bool) {
	if values, ok := v.([]interface{}); ok {
		return values, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	values := make([]interface{}, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, true
}

// mapEntries returns the entries of a common.Map in their order, or of a Go map ordered by the string form of the
// keys.
func mapEntries(v interface{}) ([]common.MapEntry, bool) {
	if m, ok := v.(common.Map); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	entries := make([]common.MapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, common.MapEntry{Key: iter.Key().Interface(), Value: iter.Value().Interface()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return fmt.Sprint(entries[i].Key) < fmt.Sprint(entries[j].Key)
	})
	return entries, true
}
