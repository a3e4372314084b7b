package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"

	"github.com/tinywasm/txorm"
)

// stmtCacheSize bounds prepared statements held per transaction.
// The commit flush loop reuses its UPDATE/DELETE statements from here.
const stmtCacheSize = 64

// storageTx implements txorm.StorageTransaction over one sql.Tx.
type storageTx struct {
	conn  *Conn
	tx    *sql.Tx
	stmts *lru.Cache
}

func (s *storageTx) prepare(query string) (*sql.Stmt, error) {
	if v, ok := s.stmts.Get(query); ok {
		return v.(*sql.Stmt), nil
	}
	stmt, err := s.tx.Prepare(query)
	if err != nil {
		return nil, err
	}
	s.stmts.Add(query, stmt)
	return stmt, nil
}

func (s *storageTx) EnsureTable(schema *txorm.Schema) error {
	var cols = make([]string, 0, len(schema.Fields)+1)
	cols = append(cols, quoteIdent("id")+" INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, f := range schema.Fields {
		cols = append(cols, quoteIdent(f.Column)+" "+sqlType(f.Kind))
	}
	var query = fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(schema.TableName), strings.Join(cols, ", "))

	if _, err := s.tx.Exec(query); err != nil {
		return mapError(err, errCtx{schema: schema})
	}
	log.WithField("table", schema.TableName).Debug("sqlite: ensured table")
	return nil
}

func (s *storageTx) InsertRow(schema *txorm.Schema, row txorm.Row) (txorm.ID, error) {
	var query string
	if len(schema.Fields) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quoteIdent(schema.TableName))
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(schema.TableName),
			joinQuoted(schema.ColumnNames()),
			placeholders(len(schema.Fields)))
	}

	stmt, err := s.prepare(query)
	if err != nil {
		return 0, mapError(err, errCtx{schema: schema})
	}
	res, err := stmt.Exec(bindArgs(row)...)
	if err != nil {
		return 0, mapError(err, errCtx{schema: schema})
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, mapError(err, errCtx{schema: schema})
	}
	return txorm.ID(id), nil
}

func (s *storageTx) SelectRow(schema *txorm.Schema, id txorm.ID) (txorm.RowMap, error) {
	var columns = schema.ColumnNames()
	// Columns are qualified with the table name: SQLite reads an
	// unqualified double-quoted name that matches no column as a string
	// literal, which would hide a missing column.
	var qualified = make([]string, len(columns))
	for i, c := range columns {
		qualified[i] = quoteIdent(schema.TableName) + "." + quoteIdent(c)
	}
	var selected = strings.Join(qualified, ", ")
	if len(columns) == 0 {
		selected = quoteIdent("id")
	}
	var query = fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		selected, quoteIdent(schema.TableName), quoteIdent("id"))

	var ctx = errCtx{schema: schema, id: id}
	stmt, err := s.prepare(query)
	if err != nil {
		err = mapError(err, ctx)
		if mc, ok := err.(*txorm.MissingColumnError); ok {
			// The driver names a qualified column as table.column.
			mc.Column = strings.TrimPrefix(mc.Column, schema.TableName+".")
		}
		return nil, err
	}

	var raw = make([]any, max(len(columns), 1))
	var dest = make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err = stmt.QueryRow(int64(id)).Scan(dest...); err != nil {
		return nil, mapError(err, ctx)
	}

	var rm = make(txorm.RowMap, len(schema.Fields))
	for i, f := range schema.Fields {
		v, err := narrowValue(f, raw[i])
		if err != nil {
			return nil, withContext(err, ctx)
		}
		rm[f.Column] = v
	}
	return rm, nil
}

func (s *storageTx) UpdateRow(schema *txorm.Schema, id txorm.ID, row txorm.Row) error {
	var ctx = errCtx{schema: schema, id: id}
	if len(schema.Fields) == 0 {
		// Nothing to overwrite; still report a missing row.
		_, err := s.SelectRow(schema, id)
		return err
	}

	var sets = make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		sets[i] = quoteIdent(f.Column) + " = ?"
	}
	var query = fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quoteIdent(schema.TableName), strings.Join(sets, ", "), quoteIdent("id"))

	stmt, err := s.prepare(query)
	if err != nil {
		return mapError(err, ctx)
	}
	res, err := stmt.Exec(append(bindArgs(row), int64(id))...)
	if err != nil {
		return mapError(err, ctx)
	}
	return checkAffected(res, ctx)
}

func (s *storageTx) DeleteRow(schema *txorm.Schema, id txorm.ID) error {
	var ctx = errCtx{schema: schema, id: id}
	var query = fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		quoteIdent(schema.TableName), quoteIdent("id"))

	stmt, err := s.prepare(query)
	if err != nil {
		return mapError(err, ctx)
	}
	res, err := stmt.Exec(int64(id))
	if err != nil {
		return mapError(err, ctx)
	}
	return checkAffected(res, ctx)
}

func (s *storageTx) Commit() error {
	s.finish()
	if err := s.tx.Commit(); err != nil {
		return mapError(err, errCtx{})
	}
	return nil
}

func (s *storageTx) Rollback() error {
	s.finish()
	if err := s.tx.Rollback(); err != nil {
		return mapError(err, errCtx{})
	}
	return nil
}

// finish closes cached statements and releases the connection for the
// next transaction.
func (s *storageTx) finish() {
	s.stmts.Purge()
	s.conn.active = false
}

func checkAffected(res sql.Result, ctx errCtx) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, ctx)
	}
	if n == 0 {
		return &txorm.NotFoundError{TypeName: ctx.schema.TypeName, ID: ctx.id}
	}
	return nil
}

func sqlType(k txorm.ValueKind) string {
	switch k {
	case txorm.KindString:
		return "TEXT"
	case txorm.KindBytes:
		return "BLOB"
	case txorm.KindInt64:
		return "INTEGER"
	case txorm.KindFloat64:
		return "REAL"
	case txorm.KindBool:
		return "INTEGER"
	}
	panic(fmt.Sprintf("sqlite: unknown value kind %d", k))
}

// narrowValue converts a driver value to the field's kind.
// SQLite's numeric affinity makes INTEGER acceptable where the schema
// declares Float64 or Bool.
func narrowValue(f txorm.Field, raw any) (txorm.Value, error) {
	switch f.Kind {
	case txorm.KindString:
		if s, ok := raw.(string); ok {
			return txorm.String(s), nil
		}
	case txorm.KindBytes:
		if b, ok := raw.([]byte); ok {
			return txorm.Bytes(b), nil
		}
	case txorm.KindInt64:
		if x, ok := raw.(int64); ok {
			return txorm.Int64(x), nil
		}
	case txorm.KindFloat64:
		if x, ok := raw.(float64); ok {
			return txorm.Float64(x), nil
		}
		if x, ok := raw.(int64); ok {
			return txorm.Float64(float64(x)), nil
		}
	case txorm.KindBool:
		if x, ok := raw.(bool); ok {
			return txorm.Bool(x), nil
		}
		if x, ok := raw.(int64); ok {
			return txorm.Bool(x != 0), nil
		}
	}
	return txorm.Value{}, &txorm.UnexpectedTypeError{
		Column:   f.Column,
		Expected: f.Kind,
		Got:      describeRaw(raw),
	}
}

func describeRaw(raw any) string {
	if raw == nil {
		return "Null"
	}
	return fmt.Sprintf("%T", raw)
}

func bindArgs(row txorm.Row) []any {
	var args = make([]any, len(row))
	for i, v := range row {
		var arg = v.Interface()
		// A nil byte slice would bind as NULL; keep blobs non-null.
		if b, ok := arg.([]byte); ok && b == nil {
			arg = []byte{}
		}
		args[i] = arg
	}
	return args
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func joinQuoted(names []string) string {
	var quoted = make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
