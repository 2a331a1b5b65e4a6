// Package migrations holds the embedded schema migrations for the
// local email database.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS contains the embedded SQL migration files. Both the store and
// cmd/migrate apply migrations from here, so a binary never depends on
// files on disk.
//
//go:embed *.sql
var FS embed.FS

// Run brings the email database schema up to the latest version.
func Run(db *sql.DB) error {
	goose.SetBaseFS(FS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
