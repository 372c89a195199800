package storage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/nikbrunner/bmpop/internal/storage"
	"gotest.tools/v3/assert"
)

func newSQLite(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	s, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "bookmarks.db"))
	assert.NilError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSQLite(t *testing.T, s *storage.SQLiteStorage) {
	t.Helper()
	used := time.Date(2025, 1, 20, 14, 22, 0, 0, time.UTC)
	github := model.NewBookmark(model.NewBookmarkParams{Title: "GitHub", URL: "https://github.com"})
	github.LastUsedAt = &used

	_, err := s.Import(context.Background(), "1", []model.TreeNode{
		github,
		model.NewFolder(model.NewFolderParams{Title: "Dev", Children: []model.TreeNode{
			model.NewBookmark(model.NewBookmarkParams{Title: "Go", URL: "https://go.dev"}),
		}}),
	})
	assert.NilError(t, err)
}

func TestSQLiteStorage_EmptyDatabaseHasPermanentFolders(t *testing.T) {
	s := newSQLite(t)

	tree, err := s.FetchTree(context.Background())
	assert.NilError(t, err)

	assert.Equal(t, len(tree), 2)
	assert.Equal(t, tree[0].ID, "1")
	assert.Equal(t, tree[0].Title, "Bookmarks bar")
	assert.Equal(t, tree[1].ID, "2")
	assert.Equal(t, tree[1].Title, "Other bookmarks")
	assert.Equal(t, len(model.Flatten(tree)), 0)
}

func TestSQLiteStorage_ImportAndFetch(t *testing.T) {
	s := newSQLite(t)
	seedSQLite(t, s)

	tree, err := s.FetchTree(context.Background())
	assert.NilError(t, err)

	records := model.Flatten(tree)
	assert.DeepEqual(t, recordIDs(records), []string{"3", "5"})
	assert.Equal(t, records[0].Title, "GitHub")
	assert.Equal(t, records[0].ParentID, "1")
	assert.Assert(t, records[0].LastUsedAt != nil)
	assert.Equal(t, records[1].Title, "Go")
	assert.Equal(t, records[1].ParentID, "4")
	assert.Equal(t, records[1].Index, 0)
}

func TestSQLiteStorage_ImportSkipsDuplicateURLs(t *testing.T) {
	s := newSQLite(t)
	seedSQLite(t, s)

	result, err := s.Import(context.Background(), "", []model.TreeNode{
		model.NewBookmark(model.NewBookmarkParams{Title: "Again", URL: "https://github.com"}),
		model.NewBookmark(model.NewBookmarkParams{Title: "New", URL: "https://new.example"}),
	})
	assert.NilError(t, err)
	assert.Equal(t, result.Bookmarks, 1)
	assert.Equal(t, result.Skipped, 1)
}

func TestSQLiteStorage_Remove(t *testing.T) {
	s := newSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()

	assert.NilError(t, s.Remove(ctx, "3"))

	tree, err := s.FetchTree(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, recordIDs(model.Flatten(tree)), []string{"5"})

	// Dev folder moved up to position 0.
	dev := model.FindNode(tree, "4")
	assert.Assert(t, dev != nil)
	assert.Equal(t, dev.Index, 0)
}

func TestSQLiteStorage_RemoveErrors(t *testing.T) {
	s := newSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()

	assert.ErrorIs(t, s.Remove(ctx, "999"), storage.ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "not-a-number"), storage.ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "1"), storage.ErrPermanentNode)
	assert.ErrorIs(t, s.Remove(ctx, "4"), storage.ErrFolderNotEmpty)
}

func TestSQLiteStorage_SetTitle(t *testing.T) {
	s := newSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()

	assert.NilError(t, s.SetTitle(ctx, "5", "Golang"))

	tree, err := s.FetchTree(ctx)
	assert.NilError(t, err)
	assert.Equal(t, model.FindNode(tree, "5").Title, "Golang")

	assert.ErrorIs(t, s.SetTitle(ctx, "999", "x"), storage.ErrNotFound)
	assert.ErrorIs(t, s.SetTitle(ctx, "2", "x"), storage.ErrPermanentNode)
}

func TestSQLiteStorage_IDsKeepIncreasing(t *testing.T) {
	s := newSQLite(t)
	seedSQLite(t, s)
	ctx := context.Background()

	assert.NilError(t, s.Remove(ctx, "5"))
	_, err := s.Import(ctx, "", []model.TreeNode{
		model.NewBookmark(model.NewBookmarkParams{Title: "Later", URL: "https://later.example"}),
	})
	assert.NilError(t, err)

	tree, err := s.FetchTree(ctx)
	assert.NilError(t, err)
	assert.DeepEqual(t, recordIDs(model.Flatten(tree)), []string{"3", "6"})
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "bookmarks.db")
	s, err := storage.NewSQLiteStorage(path)
	assert.NilError(t, err)
	seedSQLite(t, s)
	assert.NilError(t, s.Close())

	s, err = storage.NewSQLiteStorage(path)
	assert.NilError(t, err)
	defer s.Close()

	tree, err := s.FetchTree(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(tree), 2, "migration must not reseed")
	assert.Equal(t, len(model.Flatten(tree)), 2)
}

func TestSQLiteStorage_CorruptTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.db")
	s, err := storage.NewSQLiteStorage(path)
	assert.NilError(t, err)
	defer s.Close()
	seedSQLite(t, s)

	db, err := sql.Open("sqlite", path)
	assert.NilError(t, err)
	defer db.Close()
	_, err = db.Exec(`UPDATE nodes SET created_at = 'yesterday' WHERE title = 'Go'`)
	assert.NilError(t, err)

	_, err = s.FetchTree(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.ErrorContains(t, err, "created_at")
}
