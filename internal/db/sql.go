package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // registers the "postgres" driver
)

// SQLPool adapts a database/sql handle to Pool. sql.DB already is a bounded
// pool; Acquire pins one of its connections for the unit of work.
type SQLPool struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLPool(db *sql.DB, dialect Dialect) *SQLPool {
	return &SQLPool{db: db, dialect: dialect}
}

// OpenSQL opens driver ("postgres" or "mysql") and checks connectivity.
func OpenSQL(ctx context.Context, driver, dsn string, maxConns int) (*SQLPool, error) {
	var dialect Dialect
	switch driver {
	case "postgres":
		dialect = Postgres
	case "mysql":
		dialect = MySQL
		cfg, err := mysql.ParseDSN(strings.TrimPrefix(dsn, "mysql://"))
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		dsn = cfg.FormatDSN()
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return NewSQLPool(db, dialect), nil
}

func (p *SQLPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{c: c, dialect: p.dialect}, nil
}

func (p *SQLPool) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *SQLPool) Close() { _ = p.db.Close() }

type sqlConn struct {
	c       *sql.Conn
	dialect Dialect
}

func (c *sqlConn) Dialect() Dialect { return c.dialect }

func (c *sqlConn) QueryRow(ctx context.Context, query string, args ...any) Row {
	return c.c.QueryRowContext(ctx, query, args...)
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.c.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *sqlConn) Release() { _ = c.c.Close() }

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { _ = r.Rows.Close() }
