// Package txorm maps relational rows to in-memory objects scoped to a
// transaction. Consumers implement the Object interface for a record
// type, begin a Txn against a storage backend, and work with records
// through typed handles. The transaction keeps an identity map so two
// lookups of the same row alias one object, enforces a runtime
// shared/exclusive borrow discipline over those aliases, and flushes
// dirty and deleted objects atomically at commit.
//
// The sqlite subpackage provides the stock storage backend.
package txorm
