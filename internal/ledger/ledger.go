// Package ledger records the fixture accounts a harness run creates, so a
// later cleanup pass can deactivate them and revoke their sessions even
// when the run that created them crashed.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/l0r3zz/mattermost-webapp/internal/db"
	"github.com/trebent/zerologr"
)

type (
	Opts struct {
		DB db.SQLClient
	}
	Ledger struct {
		db db.SQLClient
	}
	// Entry is one recorded fixture account.
	Entry struct {
		UserID   string
		Username string
		Email    string
		Admin    bool
		Created  int64
	}
)

const schema = `
CREATE TABLE IF NOT EXISTS fixture_users (
	user_id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	admin INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
`

var (
	queryRecordUser = "INSERT OR REPLACE INTO fixture_users (user_id, username, email, admin, created_at) " +
		"VALUES(@userID, @username, @email, @admin, @createdAt);"
	queryListUsers  = "SELECT user_id, username, email, admin, created_at FROM fixture_users ORDER BY created_at;"
	queryRemoveUser = "DELETE FROM fixture_users WHERE user_id = @userID;"
	queryClear      = "DELETE FROM fixture_users;"
)

// New opens the ledger and applies its schema.
func New(ctx context.Context, opts *Opts) (*Ledger, error) {
	l := &Ledger{db: opts.DB}
	if err := l.db.ApplySchema(ctx, []byte(schema)); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Record(ctx context.Context, entry *Entry) error {
	created := entry.Created
	if created == 0 {
		created = time.Now().UnixMilli()
	}

	_, err := l.db.Exec(
		ctx,
		queryRecordUser,
		sql.NamedArg{Name: "userID", Value: entry.UserID},
		sql.NamedArg{Name: "username", Value: entry.Username},
		sql.NamedArg{Name: "email", Value: entry.Email},
		sql.NamedArg{Name: "admin", Value: entry.Admin},
		sql.NamedArg{Name: "createdAt", Value: created},
	)
	if err != nil {
		zerologr.Error(err, "Failed to record fixture user", "user_id", entry.UserID)
		return err
	}

	zerologr.V(10).Info("Recorded fixture user", "username", entry.Username)
	return nil
}

func (l *Ledger) Users(ctx context.Context) ([]*Entry, error) {
	rows, err := l.db.Query(ctx, queryListUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint: errcheck

	entries := []*Entry{}
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(
			&entry.UserID, &entry.Username, &entry.Email, &entry.Admin, &entry.Created,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (l *Ledger) Remove(ctx context.Context, userID string) error {
	_, err := l.db.Exec(ctx, queryRemoveUser, sql.NamedArg{Name: "userID", Value: userID})
	return err
}

// Clear drops every recorded fixture, used after a successful reset.
func (l *Ledger) Clear(ctx context.Context) error {
	_, err := l.db.Exec(ctx, queryClear)
	return err
}

func (l *Ledger) Close() error {
	return l.db.Close()
}
