package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/journal/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestJournal creates a journal with a unique table name for test isolation
func setupTestJournal(t *testing.T) scopefs.UploadLog {
	t.Helper()

	ctx := context.Background()
	tableName := fmt.Sprintf("uploads_%s", getRandomString(t))

	db, err := sqlite.Connect(ctx, ":memory:", tableName)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.Journal()
}
