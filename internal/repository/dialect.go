package repository

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Dialect selects the SQL flavour of the connected database.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// ParseDialect accepts the DB_DRIVER values that name a SQL database.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	}
	return "", fmt.Errorf("unsupported sql dialect %q", s)
}

// Rebind rewrites ? placeholders into the dialect's bindvar form.  Queries
// must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(string(d)), query)
}
