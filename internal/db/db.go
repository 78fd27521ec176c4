package db

import (
	"context"
	"database/sql"
)

type SQLClient interface {
	ApplySchema(ctx context.Context, bs []byte) error
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error
}
