package txorm

// Row is an ordered sequence of values in schema field order.
type Row []Value

// RowMap is a row keyed by column name, as produced by storage reads.
// UnmarshalRow implementations consume it through the typed getters.
type RowMap map[string]Value

// String extracts a KindString column.
// Returns *MissingColumnError if the column is absent and
// *UnexpectedTypeError if the stored kind disagrees.
func (m RowMap) String(column string) (string, error) {
	v, ok := m[column]
	if !ok {
		return "", &MissingColumnError{Column: column}
	}
	s, ok := v.AsString()
	if !ok {
		return "", &UnexpectedTypeError{Column: column, Expected: KindString, Got: v.Kind().String()}
	}
	return s, nil
}

// Bytes extracts a KindBytes column.
func (m RowMap) Bytes(column string) ([]byte, error) {
	v, ok := m[column]
	if !ok {
		return nil, &MissingColumnError{Column: column}
	}
	b, ok := v.AsBytes()
	if !ok {
		return nil, &UnexpectedTypeError{Column: column, Expected: KindBytes, Got: v.Kind().String()}
	}
	return b, nil
}

// Int64 extracts a KindInt64 column.
func (m RowMap) Int64(column string) (int64, error) {
	v, ok := m[column]
	if !ok {
		return 0, &MissingColumnError{Column: column}
	}
	x, ok := v.AsInt64()
	if !ok {
		return 0, &UnexpectedTypeError{Column: column, Expected: KindInt64, Got: v.Kind().String()}
	}
	return x, nil
}

// Float64 extracts a KindFloat64 column.
func (m RowMap) Float64(column string) (float64, error) {
	v, ok := m[column]
	if !ok {
		return 0, &MissingColumnError{Column: column}
	}
	x, ok := v.AsFloat64()
	if !ok {
		return 0, &UnexpectedTypeError{Column: column, Expected: KindFloat64, Got: v.Kind().String()}
	}
	return x, nil
}

// Bool extracts a KindBool column.
func (m RowMap) Bool(column string) (bool, error) {
	v, ok := m[column]
	if !ok {
		return false, &MissingColumnError{Column: column}
	}
	x, ok := v.AsBool()
	if !ok {
		return false, &UnexpectedTypeError{Column: column, Expected: KindBool, Got: v.Kind().String()}
	}
	return x, nil
}

// Object represents a persistent record.
// Consumers implement this interface on a pointer receiver.
//
// Schema() must return the same pointer for every instance of a type.
// MarshalRow() must emit one value per schema field, in field order;
// it must not fail for a well-formed object. UnmarshalRow() fills the
// receiver from a column-named row and reports *MissingColumnError or
// *UnexpectedTypeError.
type Object interface {
	Schema() *Schema
	MarshalRow() Row
	UnmarshalRow(row RowMap) error
}

// ObjectPtr constrains a pointer to T that satisfies Object, letting
// Get allocate the record and fill it through its pointer.
type ObjectPtr[T any] interface {
	*T
	Object
}
