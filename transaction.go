package txorm

import (
	"reflect"

	log "github.com/sirupsen/logrus"
)

// Txn is the user-facing transaction. It owns the storage transaction
// and the object cache, and is not safe for concurrent use: the
// transaction, its cache and every handle into it belong to one
// goroutine.
type Txn struct {
	storage StorageTransaction
	cache   *objectCache
	ensured map[string]bool
	done    bool
}

// Begin wraps a storage transaction in a Txn.
// Backend packages call this from their own Begin; consumers with a
// custom StorageTransaction may call it directly.
func Begin(st StorageTransaction) *Txn {
	return &Txn{
		storage: st,
		cache:   newObjectCache(),
		ensured: make(map[string]bool),
	}
}

func (t *Txn) ensureTable(schema *Schema) error {
	if t.ensured[schema.TableName] {
		return nil
	}
	if err := t.storage.EnsureTable(schema); err != nil {
		return err
	}
	t.ensured[schema.TableName] = true
	return nil
}

// Create inserts the object and returns a handle to it.
// The object is owned by the transaction from here on: mutations must
// go through Handle.Update. The new cell starts dirty.
func Create[T any, PT ObjectPtr[T]](t *Txn, obj PT) (*Handle[T], error) {
	if t.done {
		return nil, ErrTxDone
	}
	var schema = obj.Schema()
	if err := t.ensureTable(schema); err != nil {
		return nil, err
	}
	var row = obj.MarshalRow()
	checkRow(schema, row)

	id, err := t.storage.InsertRow(schema, row)
	if err != nil {
		return nil, err
	}

	var c = &cell{txn: t, schema: schema, obj: obj, state: stateDirty}
	t.cache.install(cacheKey{typ: reflect.TypeOf((*T)(nil)).Elem(), id: id}, c)

	log.WithFields(log.Fields{"table": schema.TableName, "id": id}).
		Debug("txorm: inserted object")
	return &Handle[T]{id: id, cell: c}, nil
}

// Get returns a handle to the object with the given id.
// A cached identity yields an aliased handle to the same object; a
// cache miss loads the row from storage and installs a clean cell.
// An identity deleted in this transaction reports ErrNotFound.
func Get[T any, PT ObjectPtr[T]](t *Txn, id ID) (*Handle[T], error) {
	if t.done {
		return nil, ErrTxDone
	}
	var schema = PT(new(T)).Schema()
	if err := t.ensureTable(schema); err != nil {
		return nil, err
	}

	var key = cacheKey{typ: reflect.TypeOf((*T)(nil)).Elem(), id: id}
	if c, ok := t.cache.lookup(key); ok {
		if c.state == stateRemoved {
			return nil, notFound(schema, id)
		}
		return &Handle[T]{id: id, cell: c}, nil
	}

	rm, err := t.storage.SelectRow(schema, id)
	if err != nil {
		return nil, err
	}
	var obj = PT(new(T))
	if err = obj.UnmarshalRow(rm); err != nil {
		return nil, withSchemaContext(err, schema)
	}

	var c = &cell{txn: t, schema: schema, obj: obj, state: stateClean}
	t.cache.install(key, c)

	log.WithFields(log.Fields{"table": schema.TableName, "id": id}).
		Debug("txorm: loaded object")
	return &Handle[T]{id: id, cell: c}, nil
}

// Commit flushes dirty and removed cells in cache insertion order,
// then finalizes the storage transaction. On a flush failure the
// storage transaction is rolled back and the failure surfaced; the
// transaction is finished either way.
func (t *Txn) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	updated, deleted, err := t.cache.flush(t.storage)
	if err != nil {
		_ = t.storage.Rollback()
		return err
	}
	if err = t.storage.Commit(); err != nil {
		return err
	}
	log.WithFields(log.Fields{"updated": updated, "deleted": deleted}).
		Debug("txorm: committed transaction")
	return nil
}

// Rollback discards all cached objects and the storage transaction.
func (t *Txn) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.cache.drop()

	log.Debug("txorm: rolled back transaction")
	return t.storage.Rollback()
}

// Close rolls the transaction back unless it already finished.
// Deferring Close gives an abandoned transaction rollback semantics.
func (t *Txn) Close() error {
	if t.done {
		return nil
	}
	return t.Rollback()
}

// Handle is a transaction-scoped reference to a stored object.
// Handles for the same (type, id) alias one object; its lifetime is
// bounded by the owning transaction.
type Handle[T any] struct {
	id   ID
	cell *cell
}

// ID returns the storage-assigned row id.
func (h *Handle[T]) ID() ID { return h.id }

// View runs fn under a shared borrow of the object. fn must not
// retain the pointer past its return.
// Panics if the object is deleted, exclusively borrowed, or the
// transaction has finished.
func (h *Handle[T]) View(fn func(*T)) {
	h.cell.acquireShared()
	defer h.cell.releaseShared()
	fn(any(h.cell.obj).(*T))
}

// Update runs fn under an exclusive borrow and marks the object
// dirty, whether or not fn wrote anything.
// Panics if the object is deleted, has any outstanding borrow, or the
// transaction has finished.
func (h *Handle[T]) Update(fn func(*T)) {
	h.cell.acquireExclusive()
	defer h.cell.releaseExclusive()
	fn(any(h.cell.obj).(*T))
}

// Delete marks the object for deletion at commit. The identity
// becomes inert: borrows through any aliased handle panic, and Get
// reports ErrNotFound.
// Panics on a borrowed object, on a double delete, or after the
// transaction has finished.
func (h *Handle[T]) Delete() {
	h.cell.remove()
}
