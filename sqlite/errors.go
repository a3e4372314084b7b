package sqlite

import (
	"database/sql"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/tinywasm/txorm"
)

// errCtx carries the schema and id the failing operation was about,
// so mapped errors name the type, table and column involved.
type errCtx struct {
	schema *txorm.Schema
	id     txorm.ID
}

// mapError converts a driver failure into the txorm taxonomy:
// no rows -> NotFound, busy/locked -> ErrLockConflict, a message
// naming an unknown column -> MissingColumn, anything else -> Storage.
func mapError(err error, ctx errCtx) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		var e = &txorm.NotFoundError{ID: ctx.id}
		if ctx.schema != nil {
			e.TypeName = ctx.schema.TypeName
		}
		return e
	}

	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return txorm.ErrLockConflict
	}

	if column, ok := missingColumn(err.Error()); ok {
		return withContext(&txorm.MissingColumnError{Column: column}, ctx)
	}

	return &txorm.StorageError{Cause: errors.WithStack(err)}
}

// missingColumn extracts the column name from the two SQLite message
// shapes that report an absent column.
func missingColumn(msg string) (string, bool) {
	for _, marker := range []string{"no such column: ", "has no column named "} {
		if i := strings.Index(msg, marker); i >= 0 {
			return strings.TrimSpace(msg[i+len(marker):]), true
		}
	}
	return "", false
}

// withContext fills type and table names onto taxonomy errors built
// from driver-level information.
func withContext(err error, ctx errCtx) error {
	if ctx.schema == nil {
		return err
	}
	switch e := err.(type) {
	case *txorm.MissingColumnError:
		e.TypeName = ctx.schema.TypeName
		e.TableName = ctx.schema.TableName
	case *txorm.UnexpectedTypeError:
		e.TypeName = ctx.schema.TypeName
		e.TableName = ctx.schema.TableName
	}
	return err
}
