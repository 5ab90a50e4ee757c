package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewPostgres opens the chat database and brings the schema up to date.
// url takes precedence; when it is empty a local DSN is built from host.
func NewPostgres(url, host string) (*sql.DB, error) {
	if url == "" {
		url = fmt.Sprintf("postgres://postgres:postgres@%s/coachchat?sslmode=disable", host)
	}

	db := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	if n > 0 {
		slog.Info("applied db migrations", "count", n)
	}

	return db, nil
}

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "001_create_chat",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS chat (
					chat_id    TEXT PRIMARY KEY,
					user_id    TEXT NOT NULL,
					coach_type TEXT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now()
				)`,
			},
			Down: []string{`DROP TABLE chat`},
		},
		{
			Id: "002_create_message",
			Up: []string{`
				CREATE TABLE IF NOT EXISTS message (
					message_id TEXT PRIMARY KEY,
					chat_id    TEXT NOT NULL,
					user_id    TEXT NOT NULL,
					role       TEXT NOT NULL,
					content    TEXT NOT NULL,
					"order"    INT  NOT NULL,
					"like"     INT  NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT now()
				)`,
				`CREATE INDEX IF NOT EXISTS message_chat_user_idx ON message (chat_id, user_id)`,
			},
			Down: []string{`DROP TABLE message`},
		},
	},
}
