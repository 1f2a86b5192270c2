package db

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBytes
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindOther:
		return "other"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single column value. The zero Value is NULL.
type Value struct {
	kind  Kind
	i     int64
	f     float64
	s     string
	b     []byte
	other any
}

// Row holds one value per result column, in column order.
type Row []Value

func NullValue() Value { return Value{} }
func IntValue(v int64) Value { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }
func TextValue(v string) Value { return Value{kind: KindText, s: v} }
func BytesValue(v []byte) Value { return Value{kind: KindBytes, b: v} }
func OtherValue(v any) Value { return Value{kind: KindOther, other: v} }

// ValueOf classifies a value as returned by database/sql when scanning into
// *any. Byte slices are copied.
func ValueOf(v any) Value {
	switch v := v.(type) {
	case nil:
		return NullValue()
	case int64:
		return IntValue(v)
	case int:
		return IntValue(int64(v))
	case int32:
		return IntValue(int64(v))
	case int16:
		return IntValue(int64(v))
	case int8:
		return IntValue(int64(v))
	case uint32:
		return IntValue(int64(v))
	case uint16:
		return IntValue(int64(v))
	case uint8:
		return IntValue(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return OtherValue(v)
		}
		return IntValue(int64(v))
	case float64:
		return FloatValue(v)
	case float32:
		return FloatValue(float64(v))
	case string:
		return TextValue(v)
	case []byte:
		return BytesValue(append([]byte(nil), v...))
	default:
		return OtherValue(v)
	}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

func (v Value) Text() (string, bool) {
	return v.s, v.kind == KindText
}

func (v Value) Bytes() ([]byte, bool) {
	return v.b, v.kind == KindBytes
}

// Any returns the underlying Go value, nil for NULL.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBytes:
		return v.b
	case KindOther:
		return v.other
	default:
		return nil
	}
}

// AsInt converts numeric and numeric-looking text values to an integer.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		if v.f != math.Trunc(v.f) {
			return 0, fmt.Errorf("float %v is not an integer", v.f)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which is out of range.
		if v.f < math.MinInt64 || v.f >= math.MaxInt64 {
			return 0, fmt.Errorf("float %v overflows int64", v.f)
		}
		return int64(v.f), nil
	case KindText, KindBytes:
		return strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %s value to int", v.kind)
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBytes:
		return string(v.b)
	default:
		return fmt.Sprint(v.other)
	}
}

// rowScanner reads rows of a result into Row values sized to the result's
// column count.
type rowScanner struct {
	rows    *sql.Rows
	columns []*sql.ColumnType
	dest    []any
	ptrs    []any
}

func newRowScanner(rows *sql.Rows) (*rowScanner, error) {
	columns, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("get column types: %w", err)
	}

	s := &rowScanner{
		rows:    rows,
		columns: columns,
		dest:    make([]any, len(columns)),
		ptrs:    make([]any, len(columns)),
	}
	for i := range s.dest {
		s.ptrs[i] = &s.dest[i]
	}
	return s, nil
}

func (s *rowScanner) names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name()
	}
	return names
}

func (s *rowScanner) scan() (Row, error) {
	clear(s.dest)
	if err := s.rows.Scan(s.ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(Row, len(s.dest))
	for i, raw := range s.dest {
		value := ValueOf(raw)
		if value.kind == KindBytes && isTextColumn(s.columns[i]) {
			value = TextValue(string(value.b))
		}
		row[i] = value
	}
	return row, nil
}

// isTextColumn reports whether a driver returning []byte (mysql does for the
// text protocol) actually holds character data.
func isTextColumn(c *sql.ColumnType) bool {
	name := strings.ToUpper(c.DatabaseTypeName())
	return strings.Contains(name, "CHAR") ||
		strings.Contains(name, "TEXT") ||
		name == "JSON" ||
		name == "DECIMAL" ||
		name == "DATE" ||
		name == "DATETIME" ||
		name == "TIMESTAMP"
}
