package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/teamtask/internal/database"
	"github.com/gurkanbulca/teamtask/internal/database/dbtest"
)

func TestConfig_DSN(t *testing.T) {
	pg := database.Config{
		Driver:   database.DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "app",
		Password: "secret",
		DBName:   "teamtask",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=teamtask sslmode=disable", pg.DSN())

	lite := database.Config{Driver: database.DriverSQLite, Path: "file:test.db?_fk=1"}
	assert.Equal(t, "file:test.db?_fk=1", lite.DSN())
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := database.New(nil, "mysql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestMigrate_Idempotent(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Migrate(context.Background()))

	var tables []string
	err := db.SelectContext(context.Background(), &tables,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('companies', 'users', 'tasks', 'comments') ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"comments", "companies", "tasks", "users"}, tables)
}

func TestSQLiteLower_FoldsUnicode(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	var lowered string
	require.NoError(t, db.GetContext(ctx, &lowered, "SELECT lower(?)", "ÄRGER Élodie"))
	assert.Equal(t, "ärger élodie", lowered)

	var null sql.NullString
	require.NoError(t, db.GetContext(ctx, &null, "SELECT lower(NULL)"))
	assert.False(t, null.Valid)
}

func insertCompany(t *testing.T, ctx context.Context, ext sqlx.ExecerContext, db *database.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now().UTC()
	query, args := db.Builder().Insert("companies").
		Columns("id", "name", "email", "password_hash", "subscription_plan", "created_at", "updated_at").
		Values(id, name, name+"@example.com", "x", "free", now, now).
		Query()
	_, err := ext.ExecContext(ctx, query, args...)
	require.NoError(t, err)
	return id
}

func countCompanies(t *testing.T, db *database.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM companies"))
	return n
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db := dbtest.Open(t)
		err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
			insertCompany(t, ctx, tx, db, "acme")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countCompanies(t, db))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := dbtest.Open(t)
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
			insertCompany(t, ctx, tx, db, "acme")
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countCompanies(t, db))
	})
}

func TestSchema_UniqueCompanyEmail(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)

	insertCompany(t, ctx, db, db, "acme")

	now := time.Now().UTC()
	query, args := db.Builder().Insert("companies").
		Columns("id", "name", "email", "password_hash", "subscription_plan", "created_at", "updated_at").
		Values(uuid.New(), "acme", "acme@example.com", "x", "free", now, now).
		Query()
	_, err := db.ExecContext(ctx, query, args...)
	assert.Error(t, err)
}
