// Package repository is the database/sql implementation of store.Store.
// It runs against MySQL (go-sql-driver/mysql) or PostgreSQL (lib/pq); the
// queries are written with ? placeholders and rebound for the Postgres
// dialect.  Row locks are taken with SELECT ... FOR UPDATE, which both
// engines support.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/iliyamo/hospitality-reservation/internal/store"
)

// MySQL error 1062 is ER_DUP_ENTRY; Postgres 23505 is unique_violation.
const (
	mysqlDuplicateEntry = 1062
	pgUniqueViolation   = "23505"
)

// translate maps driver errors onto the store sentinels.  sql.ErrNoRows
// becomes store.ErrNotFound and unique-key violations store.ErrDuplicate;
// everything else is returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if isDuplicate(err) {
		return store.ErrDuplicate
	}
	return err
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}

// mustAffect turns an UPDATE or DELETE that touched no row into
// store.ErrNotFound.
func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
