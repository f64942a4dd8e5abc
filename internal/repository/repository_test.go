package repository

import (
	"database/sql"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hospitality-reservation/internal/store"
)

func TestDialect_Rebind(t *testing.T) {
	const q = `SELECT id FROM bookings WHERE room_type_id = ? AND check_in < ? FOR UPDATE`
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t,
		`SELECT id FROM bookings WHERE room_type_id = $1 AND check_in < $2 FOR UPDATE`,
		Postgres.Rebind(q))

	const wide = `INSERT INTO t VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	assert.Equal(t, `INSERT INTO t VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, Postgres.Rebind(wide))
	assert.Equal(t, wide, MySQL.Rebind(wide))
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{"mysql": MySQL, "Postgres": Postgres, "postgresql": Postgres, "pq": Postgres} {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseDialect("sqlite")
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "no rows", in: sql.ErrNoRows, want: store.ErrNotFound},
		{name: "wrapped no rows", in: errors.Wrap(sql.ErrNoRows, "scan"), want: store.ErrNotFound},
		{name: "mysql duplicate", in: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, want: store.ErrDuplicate},
		{name: "postgres unique violation", in: &pq.Error{Code: "23505"}, want: store.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	other := &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
	assert.Same(t, other, translate(other))
}

type fakeResult int64

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestMustAffect(t *testing.T) {
	assert.NoError(t, mustAffect(fakeResult(1), nil))
	assert.ErrorIs(t, mustAffect(fakeResult(0), nil), store.ErrNotFound)
	assert.ErrorIs(t, mustAffect(nil, &pq.Error{Code: "23505"}), store.ErrDuplicate)
}
