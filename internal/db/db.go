// Package db owns connection pools and the unit-of-work executor every
// database call goes through.
package db

import (
	"context"
	"fmt"
)

// Drivers accepted by Open.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Open builds the pool for driver. pgx is native; postgres and mysql go
// through database/sql.
func Open(ctx context.Context, driver, dsn string, maxConns int) (Pool, error) {
	switch driver {
	case DriverPgx, "":
		return NewPgxPool(ctx, dsn, int32(maxConns))
	case DriverPostgres, DriverMySQL:
		return OpenSQL(ctx, driver, dsn, maxConns)
	}
	return nil, fmt.Errorf("unknown db driver %q", driver)
}
