package sqlite

import (
	"context"
	"database/sql"

	"github.com/l0r3zz/mattermost-webapp/internal/db"
	// this is how it works.
	_ "modernc.org/sqlite"
)

type (
	Opts struct {
		DSN string
	}
	impl struct {
		conn *sql.DB
	}
)

var _ db.SQLClient = (*impl)(nil)

const (
	driver = "sqlite"

	// DBName is the file name of the fixture ledger database.
	DBName = "fixtures.db"
)

func New(opts *Opts) db.SQLClient {
	conn, err := sql.Open(driver, opts.DSN)
	if err != nil {
		panic(err)
	}

	if err := conn.PingContext(context.Background()); err != nil {
		panic(err)
	}

	return &impl{conn}
}

func (i *impl) ApplySchema(ctx context.Context, bs []byte) error {
	_, err := i.conn.ExecContext(ctx, string(bs))
	return err
}

func (i *impl) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return i.conn.QueryContext(ctx, query, args...)
}

func (i *impl) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return i.conn.ExecContext(ctx, query, args...)
}

func (i *impl) Close() error {
	return i.conn.Close()
}
