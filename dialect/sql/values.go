package sql

import (
	"reflect"
	"strconv"
)

// numericBool writes booleans as 1 and 0, for BIT and TINYINT(1) columns.
func numericBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// keywordBool writes booleans as TRUE and FALSE, for BOOLEAN columns.
func keywordBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// literal returns the inline SQL text of v when v can be written into the
// statement without a parameter: nil, booleans and integers.
func literal(v any, boolLit func(bool) string) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "NULL", true
	case bool:
		return boolLit(v), true
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	}
	return "", false
}

// listValues expands a slice value into a list. Byte slices and arrays
// (e.g. UUIDs) are scalar values and are not expanded.
func listValues(v any) ([]any, bool) {
	switch v := v.(type) {
	case nil, []byte:
		return nil, false
	case []any:
		return v, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, true
}
