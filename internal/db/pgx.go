package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is the default Pool, backed by pgxpool.
type PgxPool struct {
	pool *pgxpool.Pool
}

// NewPgxPool parses dsn, caps the pool at maxConns and checks connectivity.
func NewPgxPool(ctx context.Context, dsn string, maxConns int32) (*PgxPool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &PgxPool{pool: pool}, nil
}

func (p *PgxPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{c: c}, nil
}

func (p *PgxPool) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *PgxPool) Close() { p.pool.Close() }

type pgxConn struct {
	c *pgxpool.Conn
}

func (c *pgxConn) Dialect() Dialect { return Postgres }

func (c *pgxConn) QueryRow(ctx context.Context, query string, args ...any) Row {
	return pgxRow{row: c.c.QueryRow(ctx, query, args...)}
}

func (c *pgxConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return c.c.Query(ctx, query, args...)
}

func (c *pgxConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := c.c.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *pgxConn) Release() { c.c.Release() }

type pgxRow struct {
	row pgx.Row
}

func (r pgxRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return sql.ErrNoRows
	}
	return err
}
