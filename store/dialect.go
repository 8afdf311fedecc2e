package store

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect captures the per-backend SQL differences the query layer needs:
// placeholder style and string concatenation syntax.
type Dialect interface {
	Name() string
	Placeholder() sq.PlaceholderFormat
	// ConcatWithSpace builds a column expression joining the given columns
	// with single spaces, aliased to the given name.
	ConcatWithSpace(alias string, columns ...string) string
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

func (postgresDialect) ConcatWithSpace(alias string, columns ...string) string {
	return "(" + strings.Join(columns, " || ' ' || ") + ") AS " + alias
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (sqliteDialect) ConcatWithSpace(alias string, columns ...string) string {
	return "(" + strings.Join(columns, " || ' ' || ") + ") AS " + alias
}

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "postgres":
		return postgresDialect{}, nil
	case "sqlite":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driverName)
	}
}
