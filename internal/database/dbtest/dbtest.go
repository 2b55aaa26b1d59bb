// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gurkanbulca/teamtask/internal/database"
)

// Open returns a fresh, migrated SQLite database that is closed when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	db, err := database.Open(context.Background(), database.Config{
		Driver: database.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name),
	}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	require.NoError(t, db.Migrate(context.Background()))
	return db
}
