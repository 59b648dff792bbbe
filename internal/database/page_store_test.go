package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary SQLite ledger for testing.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "tocstrip_db_*")
	require.NoError(t, err, "Failed to create temp dir for test DB")

	db, err := Connect(filepath.Join(tempDir, "nested", "ledger.db"))
	require.NoError(t, err, "Failed to connect to test DB")

	cleanup := func() {
		assert.NoError(t, db.Close(), "Failed to close test DB")
		assert.NoError(t, os.RemoveAll(tempDir), "Failed to remove temp DB dir")
	}
	return db, cleanup
}

func TestConnect_MigrationsAreRepeatable(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	again, err := Connect(db.Path())
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestPageStore_RecordAndLastDigest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPageStore(db)
	ctx := context.Background()

	digest, err := store.LastDigest(ctx, "/site/index.html")
	require.NoError(t, err)
	assert.Empty(t, digest, "unknown page has no digest")

	require.NoError(t, store.Record(ctx, &PageRecord{Path: "/site/index.html", Digest: "aaa", Links: 4, Rewritten: 2}))
	digest, err = store.LastDigest(ctx, "/site/index.html")
	require.NoError(t, err)
	assert.Equal(t, "aaa", digest)

	require.NoError(t, store.Record(ctx, &PageRecord{Path: "/site/index.html", Digest: "bbb", Links: 4}))
	rec, err := store.GetPage(ctx, "/site/index.html")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "bbb", rec.Digest)
	assert.Equal(t, 4, rec.Links)
	assert.Equal(t, 0, rec.Rewritten)
	assert.WithinDuration(t, time.Now(), rec.ProcessedAt, 5*time.Second)
}

func TestPageStore_GetPageMissing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	rec, err := NewPageStore(db).GetPage(context.Background(), "/nope.html")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPageStore_ListPagesNewestFirst(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPageStore(db)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, p := range []string{"/a.html", "/b.html", "/c.html"} {
		require.NoError(t, store.Record(ctx, &PageRecord{Path: p, Digest: p, ProcessedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	all, err := store.ListPages(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/c.html", all[0].Path)
	assert.Equal(t, "/a.html", all[2].Path)

	limited, err := store.ListPages(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestPageStore_Forget(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPageStore(db)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, &PageRecord{Path: "/x.html", Digest: "x"}))
	require.NoError(t, store.Forget(ctx, "/x.html"))

	digest, err := store.LastDigest(ctx, "/x.html")
	require.NoError(t, err)
	assert.Empty(t, digest)
}

func TestDB_Backup(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, NewPageStore(db).Record(ctx, &PageRecord{Path: "/x.html", Digest: "x"}))

	target := filepath.Join(t.TempDir(), "backup.db")
	require.NoError(t, db.Backup(ctx, target))
	assert.FileExists(t, target)
	assert.Error(t, db.Backup(ctx, target), "refuses to overwrite an existing backup")

	restored, err := Connect(target)
	require.NoError(t, err)
	defer restored.Close()
	digest, err := NewPageStore(restored).LastDigest(ctx, "/x.html")
	require.NoError(t, err)
	assert.Equal(t, "x", digest)
}
