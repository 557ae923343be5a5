package postgres

import (
	"reflect"
	"strings"
	"sync"
)

type fieldInfo struct {
	index  int
	column string
}

var fieldCache sync.Map // reflect.Type -> []fieldInfo

func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	fields := make([]fieldInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		col, _, _ := strings.Cut(tag, ",")
		fields = append(fields, fieldInfo{index: i, column: col})
	}

	fieldCache.Store(t, fields)
	return fields
}

func structType(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.Kind() == reflect.Struct
}

// Columns returns the db-tagged column names of a struct in field order.
func Columns(v any) []string {
	rv, ok := structType(v)
	if !ok {
		return nil
	}
	fields := fieldsOf(rv.Type())
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// StructToMap maps db-tagged fields to their values for squirrel SetMap.
// Columns listed in skip are left out.
func StructToMap(v any, skip ...string) map[string]any {
	rv, ok := structType(v)
	if !ok {
		return nil
	}

	fields := fieldsOf(rv.Type())
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.column] = rv.Field(f.index).Interface()
	}
	for _, col := range skip {
		delete(out, col)
	}
	return out
}

// PrefixColumns qualifies each column with alias, for joins.
func PrefixColumns(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}
