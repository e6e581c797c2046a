package session

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresBackend(t *testing.T) (*PostgresBackend, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewPostgresBackend(pool, "ns"), pool
}

func TestPostgresBackend_EnsureSchema(t *testing.T) {
	backend, pool := newPostgresBackend(t)
	pool.ExpectExec("CREATE TABLE IF NOT EXISTS client_session").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, backend.EnsureSchema(context.Background()))
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresBackend_Get(t *testing.T) {
	backend, pool := newPostgresBackend(t)
	pool.ExpectQuery("SELECT value FROM client_session").
		WithArgs("ns", KeyToken).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("tok"))

	v, ok, err := backend.Get(context.Background(), KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresBackend_GetMissing(t *testing.T) {
	backend, pool := newPostgresBackend(t)
	pool.ExpectQuery("SELECT value FROM client_session").
		WithArgs("ns", KeyUser).
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := backend.Get(context.Background(), KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresBackend_SetIsTransactional(t *testing.T) {
	backend, pool := newPostgresBackend(t)
	pool.ExpectBegin()
	pool.ExpectExec("INSERT INTO client_session").WithArgs("ns", KeyToken, "tok").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec("INSERT INTO client_session").WithArgs("ns", KeyUser, "{}").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectCommit()

	err := backend.Set(context.Background(), map[string]string{KeyUser: "{}", KeyToken: "tok"})
	require.NoError(t, err)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresBackend_SetRollsBackOnError(t *testing.T) {
	backend, pool := newPostgresBackend(t)
	pool.ExpectBegin()
	pool.ExpectExec("INSERT INTO client_session").WithArgs("ns", KeyToken, "tok").WillReturnError(errors.New("deadlock"))
	pool.ExpectRollback()

	err := backend.Set(context.Background(), map[string]string{KeyToken: "tok"})
	assert.ErrorContains(t, err, "deadlock")
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgresBackend_DeleteBothKeysInOneStatement(t *testing.T) {
	backend, pool := newPostgresBackend(t)
	pool.ExpectExec("DELETE FROM client_session").
		WithArgs("ns", []string{KeyToken, KeyUser}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, backend.Delete(context.Background(), KeyToken, KeyUser))
	assert.NoError(t, pool.ExpectationsWereMet())
}
