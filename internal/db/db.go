package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/text3d/hub/internal/config"
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// TimestampLayout is fixed width so that stored timestamps order correctly
// when compared as strings.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Timestamp formats t in UTC with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// DB pairs a pool with the SQL dialect it speaks. Queries are written with
// "?" placeholders and rebound for postgres.
type DB struct {
	*sql.DB
	Dialect string
}

// Wrap adopts an already opened pool.
func Wrap(pool *sql.DB, dialect string) *DB {
	return &DB{DB: pool, Dialect: dialect}
}

// Open returns a pool based on the configured driver.
// CGO_ENABLED=1 is required for the "sqlite" driver; "sqlite-pure" is not.
func Open(cfg *config.Config) (*DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		pool, err := openSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return Wrap(pool, DialectSQLite), nil
	case "sqlite-pure":
		pool, err := openPureSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return Wrap(pool, DialectSQLite), nil
	case "postgres":
		pool, err := openPostgres(cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		return Wrap(pool, DialectPostgres), nil
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", cfg.DBDriver)
	}
}

// Rebind rewrites "?" placeholders to "$n" for postgres. Question marks
// inside single-quoted literals are left alone.
func (d *DB) Rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, ch := range query {
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteRune(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
