package db

import "context"

// Row is a single-row result. Scan returns sql.ErrNoRows when the statement
// produced no row, whatever the driver.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a multi-row result. Callers must Close it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Conn is one connection checked out of a Pool. It is owned by a single unit
// of work until Release is called.
type Conn interface {
	Dialect() Dialect
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	// Exec returns the number of rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Release()
}

// Pool is a bounded set of reusable connections.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Close()
}
