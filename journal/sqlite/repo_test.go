package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/journal/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestRepo_RecordAndList(t *testing.T) {
	journal := setupTestJournal(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, p := range []string{"a.txt", "b.txt", "c.txt"} {
		err := journal.Record(ctx, scopefs.UploadRecord{
			ID:           uuid.New(),
			Path:         p,
			BytesWritten: int64(i + 1),
			Digest:       "digest-" + p,
			RemoteAddr:   "127.0.0.1:1234",
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	records, err := journal.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "c.txt", records[0].Path)
	assert.Equal(t, "b.txt", records[1].Path)
	assert.Equal(t, "a.txt", records[2].Path)
	assert.Equal(t, int64(3), records[0].BytesWritten)
	assert.Equal(t, "digest-c.txt", records[0].Digest)
	assert.Equal(t, "127.0.0.1:1234", records[0].RemoteAddr)
	assert.True(t, base.Add(2*time.Second).Equal(records[0].CreatedAt))
}

func TestRepo_List_Limit(t *testing.T) {
	journal := setupTestJournal(t)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, journal.Record(ctx, scopefs.UploadRecord{Path: "x", Digest: "d"}))
	}

	records, err := journal.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRepo_List_SubSecondOrdering(t *testing.T) {
	journal := setupTestJournal(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, journal.Record(ctx, scopefs.UploadRecord{Path: "whole", CreatedAt: base}))
	require.NoError(t, journal.Record(ctx, scopefs.UploadRecord{Path: "later", CreatedAt: base.Add(100 * time.Millisecond)}))

	records, err := journal.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "later", records[0].Path)
}

func TestRepo_Record_FillsDefaults(t *testing.T) {
	journal := setupTestJournal(t)
	ctx := context.Background()

	require.NoError(t, journal.Record(ctx, scopefs.UploadRecord{Path: "a.txt"}))

	records, err := journal.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEqual(t, uuid.Nil, records[0].ID)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestRepo_List_InvalidLimit(t *testing.T) {
	journal := setupTestJournal(t)

	_, err := journal.List(context.Background(), 0)
	assert.ErrorIs(t, err, scopefs.ErrInvalidInput)
}

func TestNewRepo_InvalidTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = sqlite.NewRepo(db, "Bad-Name")
	assert.Error(t, err)
}
