package txorm_test

import (
	"fmt"

	"github.com/tinywasm/txorm"
)

// User is the reference record for tests, covering all five kinds.
type User struct {
	Name    string
	Picture []byte
	Visits  int64
	Balance float64
	IsAdmin bool
}

var userSchema = &txorm.Schema{
	TypeName:  "User",
	TableName: "users",
	Fields: []txorm.Field{
		{Name: "Name", Column: "name", Kind: txorm.KindString},
		{Name: "Picture", Column: "picture", Kind: txorm.KindBytes},
		{Name: "Visits", Column: "visits", Kind: txorm.KindInt64},
		{Name: "Balance", Column: "balance", Kind: txorm.KindFloat64},
		{Name: "IsAdmin", Column: "is_admin", Kind: txorm.KindBool},
	},
}

func (u *User) Schema() *txorm.Schema { return userSchema }

func (u *User) MarshalRow() txorm.Row {
	return txorm.Row{
		txorm.String(u.Name),
		txorm.Bytes(u.Picture),
		txorm.Int64(u.Visits),
		txorm.Float64(u.Balance),
		txorm.Bool(u.IsAdmin),
	}
}

func (u *User) UnmarshalRow(row txorm.RowMap) error {
	var err error
	if u.Name, err = row.String("name"); err != nil {
		return err
	}
	if u.Picture, err = row.Bytes("picture"); err != nil {
		return err
	}
	if u.Visits, err = row.Int64("visits"); err != nil {
		return err
	}
	if u.Balance, err = row.Float64("balance"); err != nil {
		return err
	}
	u.IsAdmin, err = row.Bool("is_admin")
	return err
}

// Post exercises a second record type sharing id ranges with User.
type Post struct {
	Title string
}

var postSchema = &txorm.Schema{
	TypeName:  "Post",
	TableName: "posts",
	Fields: []txorm.Field{
		{Name: "Title", Column: "title", Kind: txorm.KindString},
	},
}

func (p *Post) Schema() *txorm.Schema { return postSchema }

func (p *Post) MarshalRow() txorm.Row {
	return txorm.Row{txorm.String(p.Title)}
}

func (p *Post) UnmarshalRow(row txorm.RowMap) error {
	var err error
	p.Title, err = row.String("title")
	return err
}

// BadRow marshals fewer values than its schema declares.
type BadRow struct {
	A string
}

var badRowSchema = &txorm.Schema{
	TypeName:  "BadRow",
	TableName: "bad_rows",
	Fields: []txorm.Field{
		{Name: "A", Column: "a", Kind: txorm.KindString},
		{Name: "B", Column: "b", Kind: txorm.KindInt64},
	},
}

func (b *BadRow) Schema() *txorm.Schema               { return badRowSchema }
func (b *BadRow) MarshalRow() txorm.Row               { return txorm.Row{txorm.String(b.A)} }
func (b *BadRow) UnmarshalRow(row txorm.RowMap) error { return nil }

// memStorage is an in-memory StorageTransaction recording the
// operations it sees, so tests can assert flush content and order.
type memStorage struct {
	tables map[string]map[txorm.ID]txorm.RowMap
	nextID map[string]txorm.ID
	ops     []string
	failOp  string
	failErr error

	committed  bool
	rolledBack bool
}

func newMemStorage() *memStorage {
	return &memStorage{
		tables: make(map[string]map[txorm.ID]txorm.RowMap),
		nextID: make(map[string]txorm.ID),
	}
}

// seed installs a row directly, bypassing the op log.
func (m *memStorage) seed(schema *txorm.Schema, row txorm.RowMap) txorm.ID {
	if m.tables[schema.TableName] == nil {
		m.tables[schema.TableName] = make(map[txorm.ID]txorm.RowMap)
	}
	m.nextID[schema.TableName]++
	var id = m.nextID[schema.TableName]
	m.tables[schema.TableName][id] = row
	return id
}

func (m *memStorage) fail(op string) error {
	if m.failOp == op {
		return m.failErr
	}
	return nil
}

func (m *memStorage) EnsureTable(schema *txorm.Schema) error {
	if err := m.fail("ensure"); err != nil {
		return err
	}
	m.ops = append(m.ops, "ensure "+schema.TableName)
	if m.tables[schema.TableName] == nil {
		m.tables[schema.TableName] = make(map[txorm.ID]txorm.RowMap)
	}
	return nil
}

func (m *memStorage) InsertRow(schema *txorm.Schema, row txorm.Row) (txorm.ID, error) {
	if err := m.fail("insert"); err != nil {
		return 0, err
	}
	var rm = make(txorm.RowMap, len(row))
	for i, f := range schema.Fields {
		rm[f.Column] = row[i]
	}
	var id = m.seed(schema, rm)
	m.ops = append(m.ops, fmt.Sprintf("insert %s %d", schema.TableName, id))
	return id, nil
}

func (m *memStorage) SelectRow(schema *txorm.Schema, id txorm.ID) (txorm.RowMap, error) {
	if err := m.fail("select"); err != nil {
		return nil, err
	}
	m.ops = append(m.ops, fmt.Sprintf("select %s %d", schema.TableName, id))
	row, ok := m.tables[schema.TableName][id]
	if !ok {
		return nil, &txorm.NotFoundError{TypeName: schema.TypeName, ID: id}
	}
	var copied = make(txorm.RowMap, len(row))
	for k, v := range row {
		copied[k] = v
	}
	return copied, nil
}

func (m *memStorage) UpdateRow(schema *txorm.Schema, id txorm.ID, row txorm.Row) error {
	if err := m.fail("update"); err != nil {
		return err
	}
	m.ops = append(m.ops, fmt.Sprintf("update %s %d", schema.TableName, id))
	if _, ok := m.tables[schema.TableName][id]; !ok {
		return &txorm.NotFoundError{TypeName: schema.TypeName, ID: id}
	}
	var rm = make(txorm.RowMap, len(row))
	for i, f := range schema.Fields {
		rm[f.Column] = row[i]
	}
	m.tables[schema.TableName][id] = rm
	return nil
}

func (m *memStorage) DeleteRow(schema *txorm.Schema, id txorm.ID) error {
	if err := m.fail("delete"); err != nil {
		return err
	}
	m.ops = append(m.ops, fmt.Sprintf("delete %s %d", schema.TableName, id))
	if _, ok := m.tables[schema.TableName][id]; !ok {
		return &txorm.NotFoundError{TypeName: schema.TypeName, ID: id}
	}
	delete(m.tables[schema.TableName], id)
	return nil
}

func (m *memStorage) Commit() error {
	if err := m.fail("commit"); err != nil {
		return err
	}
	m.committed = true
	return nil
}

func (m *memStorage) Rollback() error {
	m.rolledBack = true
	return nil
}
