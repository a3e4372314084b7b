// Package sqlite implements the txorm storage backend over a
// file-backed SQLite database using the mattn/go-sqlite3 driver.
package sqlite

import (
	"database/sql"
	"net/url"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/tinywasm/txorm"
)

// Conn is a single-connection SQLite database. It produces at most
// one live transaction at a time and is owned by the caller.
type Conn struct {
	db     *sql.DB
	active bool
}

type config struct {
	uriValues url.Values
}

// Option customizes Open.
type Option func(*config)

// WithBusyTimeout sets the driver busy timeout applied while another
// connection holds a conflicting lock. Zero makes lock conflicts
// surface immediately.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *config) {
		c.uriValues.Set("_busy_timeout", strconv.FormatInt(d.Milliseconds(), 10))
	}
}

// WithURIValue sets an arbitrary go-sqlite3 DSN parameter, e.g.
// "_journal_mode" or "_synchronous".
func WithURIValue(key, value string) Option {
	return func(c *config) {
		c.uriValues.Set(key, value)
	}
}

// Open opens (creating if necessary) the database at path.
func Open(path string, opts ...Option) (*Conn, error) {
	var cfg = config{uriValues: url.Values{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	var dsn = "file:" + path
	if len(cfg.uriValues) != 0 {
		dsn += "?" + cfg.uriValues.Encode()
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.WithMessage(err, "opening sqlite database")
	}
	db.SetMaxOpenConns(1)

	return &Conn{db: db}, nil
}

// Begin starts a transaction. It fails if the connection already has
// a live one; the previous transaction must commit, roll back or
// Close first.
func (c *Conn) Begin() (*txorm.Txn, error) {
	if c.active {
		return nil, errors.New("connection already has an active transaction")
	}
	tx, err := c.db.Begin()
	if err != nil {
		return nil, mapError(err, errCtx{})
	}
	stmts, err := lru.NewWithEvict(stmtCacheSize, func(_, v interface{}) {
		v.(*sql.Stmt).Close()
	})
	if err != nil {
		tx.Rollback()
		return nil, errors.WithStack(err)
	}

	c.active = true
	return txorm.Begin(&storageTx{conn: c, tx: tx, stmts: stmts}), nil
}

// Close closes the underlying database.
func (c *Conn) Close() error {
	return c.db.Close()
}
