package txorm

// StorageTransaction represents one backend transaction.
// Consumers inject this interface; the sqlite package provides the
// stock implementation. All operations run on the transaction's
// goroutine and map native failures into the package error taxonomy.
type StorageTransaction interface {
	// EnsureTable idempotently creates the schema's table with an
	// autoincrement INTEGER primary key named "id".
	EnsureTable(schema *Schema) error

	// InsertRow inserts values in schema field order and returns the
	// generated id.
	InsertRow(schema *Schema, row Row) (ID, error)

	// SelectRow fetches the row with the given id, keyed by column name.
	SelectRow(schema *Schema, id ID) (RowMap, error)

	// UpdateRow overwrites the row with the given id.
	UpdateRow(schema *Schema, id ID, row Row) error

	// DeleteRow removes the row with the given id.
	DeleteRow(schema *Schema, id ID) error

	// Commit finalizes the backend transaction.
	Commit() error

	// Rollback discards the backend transaction.
	Rollback() error
}
