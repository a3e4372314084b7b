package txorm

import (
	"fmt"
	"reflect"
)

// objectState is the lifecycle state of a cached cell.
type objectState int

const (
	stateClean objectState = iota
	stateDirty
	stateRemoved
)

// borrowExclusive marks an outstanding exclusive borrow; any positive
// count is the number of outstanding shared borrows.
const borrowExclusive = -1

// cacheKey identifies a cell: the static record type plus its row id.
// Distinct record types may coexist with overlapping id ranges.
type cacheKey struct {
	typ reflect.Type
	id  ID
}

// cell is the per-identity slot of the object cache. It owns the live
// object and carries its lifecycle state and borrow counter. Handles
// hold a non-owning link back; cells never reference handles.
type cell struct {
	txn    *Txn
	schema *Schema
	obj    Object
	state  objectState
	borrow int
	keyID  ID
}

func (c *cell) checkUsable(op string) {
	if c.txn.done {
		panic(fmt.Sprintf("txorm: %s through a handle of a finished transaction", op))
	}
	if c.state == stateRemoved {
		panic(fmt.Sprintf("txorm: %s of a deleted object (type %q, id %d)",
			op, c.schema.TypeName, int64(c.keyID)))
	}
}

func (c *cell) acquireShared() {
	c.checkUsable("borrow")
	if c.borrow == borrowExclusive {
		panic("txorm: shared borrow during an outstanding exclusive borrow")
	}
	c.borrow++
}

func (c *cell) releaseShared() {
	c.borrow--
}

func (c *cell) acquireExclusive() {
	c.checkUsable("exclusive borrow")
	if c.borrow != 0 {
		panic("txorm: exclusive borrow while the object is already borrowed")
	}
	c.borrow = borrowExclusive
}

// releaseExclusive returns the counter to idle and marks the cell
// dirty unconditionally: the view cannot observe whether the caller
// actually wrote, and a spurious flush is within the contract.
func (c *cell) releaseExclusive() {
	c.borrow = 0
	c.state = stateDirty
}

func (c *cell) remove() {
	if c.txn.done {
		panic("txorm: delete through a handle of a finished transaction")
	}
	if c.state == stateRemoved {
		panic(fmt.Sprintf("txorm: double delete (type %q, id %d)",
			c.schema.TypeName, int64(c.keyID)))
	}
	if c.borrow != 0 {
		panic("txorm: delete of a borrowed object")
	}
	c.state = stateRemoved
}

// objectCache is the per-transaction identity map. At most one cell
// exists per (type, id); insertion order is the commit flush order.
type objectCache struct {
	cells map[cacheKey]*cell
	order []cacheKey
}

func newObjectCache() *objectCache {
	return &objectCache{cells: make(map[cacheKey]*cell)}
}

func (oc *objectCache) lookup(key cacheKey) (*cell, bool) {
	c, ok := oc.cells[key]
	return c, ok
}

func (oc *objectCache) install(key cacheKey, c *cell) {
	if _, ok := oc.cells[key]; ok {
		panic(fmt.Sprintf("txorm: duplicate cache cell for type %q, id %d",
			c.schema.TypeName, int64(key.id)))
	}
	c.keyID = key.id
	oc.cells[key] = c
	oc.order = append(oc.order, key)
}

// flush writes the cache out in insertion order: clean cells are
// skipped, dirty cells re-marshaled and updated, removed cells
// deleted. The first storage error aborts the walk.
func (oc *objectCache) flush(st StorageTransaction) (updated, deleted int, err error) {
	for _, key := range oc.order {
		var c = oc.cells[key]
		if c.borrow != 0 {
			panic(fmt.Sprintf("txorm: commit with an outstanding borrow (type %q, id %d)",
				c.schema.TypeName, int64(key.id)))
		}
		switch c.state {
		case stateClean:
			// Unmodified since load; invisible to storage writes.
		case stateDirty:
			var row = c.obj.MarshalRow()
			checkRow(c.schema, row)
			if err = st.UpdateRow(c.schema, key.id, row); err != nil {
				return
			}
			updated++
		case stateRemoved:
			if err = st.DeleteRow(c.schema, key.id); err != nil {
				return
			}
			deleted++
		}
	}
	return
}

func (oc *objectCache) drop() {
	oc.cells = make(map[cacheKey]*cell)
	oc.order = nil
}
