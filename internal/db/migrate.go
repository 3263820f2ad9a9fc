package db

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/text3d/hub/migrations"
)

// Migrate runs all pending goose migrations for the pool's dialect.
func Migrate(d *DB) error {
	dir := "sqlite"
	if d.Dialect == DialectPostgres {
		dir = "postgres"
	}
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(d.Dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(d.DB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
