package txorm

// ID identifies a stored object within its table.
// Storage assigns it on insert.
type ID int64

// ValueKind represents the abstract storage type of an object field.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBytes
	KindInt64
	KindFloat64
	KindBool
)

// String returns the kind name as it appears in schema declarations.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindInt64:
		return "Int64"
	case KindFloat64:
		return "Float64"
	case KindBool:
		return "Bool"
	}
	return "Unknown"
}

// Value is a tagged union over the five supported column kinds.
// It is the only representation that crosses the schema/storage boundary.
// Construct via String(), Bytes(), Int64(), Float64() or Bool().
type Value struct {
	kind ValueKind
	v    any
}

// String creates a KindString value.
func String(s string) Value { return Value{kind: KindString, v: s} }

// Bytes creates a KindBytes value.
func Bytes(b []byte) Value { return Value{kind: KindBytes, v: b} }

// Int64 creates a KindInt64 value.
func Int64(x int64) Value { return Value{kind: KindInt64, v: x} }

// Float64 creates a KindFloat64 value.
func Float64(x float64) Value { return Value{kind: KindFloat64, v: x} }

// Bool creates a KindBool value.
func Bool(x bool) Value { return Value{kind: KindBool, v: x} }

// Kind returns the kind tag of the value.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the payload of a KindString value.
// The second result is false on a kind mismatch; no coercion is attempted.
func (v Value) AsString() (string, bool) {
	s, ok := v.v.(string)
	return s, ok && v.kind == KindString
}

// AsBytes returns the payload of a KindBytes value.
func (v Value) AsBytes() ([]byte, bool) {
	b, ok := v.v.([]byte)
	return b, ok && v.kind == KindBytes
}

// AsInt64 returns the payload of a KindInt64 value.
func (v Value) AsInt64() (int64, bool) {
	x, ok := v.v.(int64)
	return x, ok && v.kind == KindInt64
}

// AsFloat64 returns the payload of a KindFloat64 value.
func (v Value) AsFloat64() (float64, bool) {
	x, ok := v.v.(float64)
	return x, ok && v.kind == KindFloat64
}

// AsBool returns the payload of a KindBool value.
func (v Value) AsBool() (bool, bool) {
	x, ok := v.v.(bool)
	return x, ok && v.kind == KindBool
}

// Interface returns the payload for driver parameter binding.
func (v Value) Interface() any { return v.v }
