package sparql

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ErrEmptyResponse is returned when a CSV response has no header line.
var ErrEmptyResponse = errors.New("empty CSV response")

// Kind is the inferred type of a table cell.
type Kind int

const (
	// KindNull is an empty cell (unbound variable).
	KindNull Kind = iota
	// KindNumber is a cell that parses as a finite float.
	KindNumber
	// KindString is any other cell.
	KindString
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a single table cell.
type Value struct {
	kind Kind
	raw  string
	num  float64
}

// ParseValue infers the kind of a raw CSV field.
func ParseValue(raw string) Value {
	if raw == "" {
		return Value{kind: KindNull}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Value{kind: KindNumber, raw: raw, num: f}
	}
	return Value{kind: KindString, raw: raw}
}

// Null returns a null cell.
func Null() Value {
	return Value{kind: KindNull}
}

// Kind returns the inferred kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is empty.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String returns the raw field text, empty for null cells.
func (v Value) String() string { return v.raw }

// Float64 returns the numeric value and whether the cell is a number.
func (v Value) Float64() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// MarshalJSON encodes nulls as null, numbers as JSON numbers and the rest as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(v.num)
	default:
		return json.Marshal(v.raw)
	}
}

// Row maps column names to cells.
type Row map[string]Value

// Table is a query result: ordered columns and ordered rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns all cells of the named column in row order.
func (t *Table) Column(name string) ([]Value, bool) {
	found := false
	for _, c := range t.Columns {
		if c == name {
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	values := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[name]
	}
	return values, true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads a CSV document whose first line is the header.
//
// Duplicate header names get a ".N" suffix. Short rows are padded with
// nulls; rows with more fields than the header are an error.
func ParseCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyResponse
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	table := &Table{
		Columns: dedupeColumns(header),
		Rows:    []Row{},
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row: %w", err)
		}
		if len(record) > len(table.Columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("CSV line %d: expected %d fields, saw %d", line, len(table.Columns), len(record))
		}

		row := make(Row, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(record) {
				row[col] = ParseValue(record[i])
			} else {
				row[col] = Null()
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func dedupeColumns(header []string) []string {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			columns[i] = name + "." + strconv.Itoa(n+1)
			continue
		}
		seen[name] = 0
		columns[i] = name
	}
	return columns
}
