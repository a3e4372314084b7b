package txorm

import "fmt"

// Field describes a single column of an object schema.
// Name is the Go field name, Column the SQL column name.
// MarshalRow() MUST emit values in schema field order.
type Field struct {
	Name   string
	Column string
	Kind   ValueKind
}

// Schema is the immutable descriptor of an object type.
// Consumers declare one per record type and return a shared pointer
// to it from Object.Schema().
type Schema struct {
	TypeName  string
	TableName string
	Fields    []Field
}

// ColumnNames returns the column names in field order.
func (s *Schema) ColumnNames() []string {
	var names = make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Column
	}
	return names
}

// FieldByColumn returns the field declared for the column, if any.
func (s *Schema) FieldByColumn(column string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return Field{}, false
}

// Compatible reports whether two schemas address interchangeable
// tables: same table name and the same ordered (column, kind) sequence.
func (s *Schema) Compatible(o *Schema) bool {
	if s.TableName != o.TableName || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f.Column != o.Fields[i].Column || f.Kind != o.Fields[i].Kind {
			return false
		}
	}
	return true
}

// checkRow panics unless the row matches the schema's width and kinds.
// A mismatch means a broken MarshalRow, which is a programmer error.
func checkRow(s *Schema, row Row) {
	if len(row) != len(s.Fields) {
		panic(fmt.Sprintf("txorm: %s.MarshalRow returned %d values, schema declares %d columns",
			s.TypeName, len(row), len(s.Fields)))
	}
	for i, v := range row {
		if v.Kind() != s.Fields[i].Kind {
			panic(fmt.Sprintf("txorm: %s.MarshalRow value %d is %s, column %q declares %s",
				s.TypeName, i, v.Kind(), s.Fields[i].Column, s.Fields[i].Kind))
		}
	}
}
