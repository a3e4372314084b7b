package txorm

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Structured errors below match these through
// errors.Is, so callers classify without caring about context payloads.
var (
	// ErrNotFound is returned when no object exists for an id, or the
	// object was deleted in this transaction.
	ErrNotFound = errors.New("object not found")

	// ErrUnexpectedType is returned when a stored value does not match
	// the schema kind of its column.
	ErrUnexpectedType = errors.New("unexpected column type")

	// ErrMissingColumn is returned when a schema-declared column is
	// absent from the stored row.
	ErrMissingColumn = errors.New("missing column")

	// ErrLockConflict is returned when the backend reports contention.
	ErrLockConflict = errors.New("database is locked")

	// ErrStorage is returned for any other backend failure.
	ErrStorage = errors.New("storage error")

	// ErrTxDone is returned by transaction operations after the
	// transaction has been committed or rolled back.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")
)

// NotFoundError reports a lookup of a nonexistent or removed object.
type NotFoundError struct {
	TypeName string
	ID       ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object is not found: type %q, id %d", e.TypeName, int64(e.ID))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnexpectedTypeError reports a stored value whose kind disagrees with
// the schema. Got carries the backend's description of the stored type.
type UnexpectedTypeError struct {
	TypeName  string
	TableName string
	Column    string
	Expected  ValueKind
	Got       string
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("invalid type for %s.%s: expected equivalent of %s, got %s (table: %s, column: %s)",
		e.TypeName, e.Column, e.Expected, e.Got, e.TableName, e.Column)
}

func (e *UnexpectedTypeError) Is(target error) bool { return target == ErrUnexpectedType }

// MissingColumnError reports a schema column absent from the stored row.
type MissingColumnError struct {
	TypeName  string
	TableName string
	Column    string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing a column for %s.%s (table: %s, column: %s)",
		e.TypeName, e.Column, e.TableName, e.Column)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }

// StorageError wraps an opaque backend failure.
type StorageError struct {
	Cause error
}

func (e *StorageError) Error() string        { return "storage error: " + e.Cause.Error() }
func (e *StorageError) Unwrap() error        { return e.Cause }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// notFound builds a NotFoundError for the schema's type.
func notFound(schema *Schema, id ID) error {
	return &NotFoundError{TypeName: schema.TypeName, ID: id}
}

// withSchemaContext fills in type and table names on taxonomy errors
// produced below the schema layer (RowMap getters know only columns).
func withSchemaContext(err error, schema *Schema) error {
	switch e := err.(type) {
	case *UnexpectedTypeError:
		if e.TypeName == "" {
			e.TypeName = schema.TypeName
		}
		if e.TableName == "" {
			e.TableName = schema.TableName
		}
	case *MissingColumnError:
		if e.TypeName == "" {
			e.TypeName = schema.TypeName
		}
		if e.TableName == "" {
			e.TableName = schema.TableName
		}
	}
	return err
}
