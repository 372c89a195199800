package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/bmpop/internal/model"
)

const currentSchemaVersion = 1

// Permanent folders seeded by the first migration.
const (
	sqliteBookmarkBarID = 1
	sqliteOtherID       = 2
)

// SQLiteStorage implements Store using a SQLite database.
// IDs are SQLite row IDs, so they increase with every insert.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLiteStorage with the given database path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// migrate runs database migrations.
func (s *SQLiteStorage) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the nodes table and the two permanent folders.
func (s *SQLiteStorage) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS nodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER,
			position INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL,
			url TEXT,
			created_at TEXT NOT NULL,
			last_used_at TEXT,
			FOREIGN KEY (parent_id) REFERENCES nodes(id)
		);

		CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
		CREATE INDEX IF NOT EXISTS idx_nodes_url ON nodes(url) WHERE url IS NOT NULL;
	`
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	seed := `INSERT OR IGNORE INTO nodes (id, parent_id, position, title, url, created_at) VALUES (?, NULL, ?, ?, NULL, ?)`
	if _, err := tx.Exec(seed, sqliteBookmarkBarID, 0, "Bookmarks bar", now); err != nil {
		return err
	}
	if _, err := tx.Exec(seed, sqliteOtherID, 1, "Other bookmarks", now); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}

type sqliteRow struct {
	node     model.TreeNode
	parentID sql.NullInt64
}

// FetchTree implements Store.
func (s *SQLiteStorage) FetchTree(ctx context.Context) ([]model.TreeNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, position, title, url, created_at, last_used_at
		FROM nodes
		ORDER BY parent_id, position, id
	`)
	if err != nil {
		return nil, unavailable("fetch tree", err)
	}
	defer rows.Close()

	// Rows grouped by parent, in position order. Key 0 holds the top level.
	children := make(map[int64][]sqliteRow)
	for rows.Next() {
		var (
			id         int64
			r          sqliteRow
			url        sql.NullString
			createdAt  string
			lastUsedAt sql.NullString
		)
		if err := rows.Scan(&id, &r.parentID, &r.node.Index, &r.node.Title, &url, &createdAt, &lastUsedAt); err != nil {
			return nil, unavailable("fetch tree", err)
		}

		r.node.ID = strconv.FormatInt(id, 10)
		if r.parentID.Valid {
			r.node.ParentID = strconv.FormatInt(r.parentID.Int64, 10)
		}
		r.node.URL = url.String
		if r.node.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, unavailable(fmt.Sprintf("fetch tree: node %d created_at", id), err)
		}
		if lastUsedAt.Valid {
			t, err := time.Parse(time.RFC3339, lastUsedAt.String)
			if err != nil {
				return nil, unavailable(fmt.Sprintf("fetch tree: node %d last_used_at", id), err)
			}
			r.node.LastUsedAt = &t
		}

		key := int64(0)
		if r.parentID.Valid {
			key = r.parentID.Int64
		}
		children[key] = append(children[key], r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("fetch tree", err)
	}

	var build func(parent int64) []model.TreeNode
	build = func(parent int64) []model.TreeNode {
		group := children[parent]
		out := make([]model.TreeNode, 0, len(group))
		for i, r := range group {
			n := r.node
			n.Index = i
			if n.URL == "" {
				id, _ := strconv.ParseInt(n.ID, 10, 64)
				n.Children = build(id)
			}
			out = append(out, n)
		}
		return out
	}

	return build(0), nil
}

// Remove implements Store. Top-level folders and non-empty folders are refused.
func (s *SQLiteStorage) Remove(ctx context.Context, id string) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("remove", err)
	}
	defer tx.Rollback()

	var (
		parentID sql.NullInt64
		position int
		url      sql.NullString
	)
	err = tx.QueryRowContext(ctx, "SELECT parent_id, position, url FROM nodes WHERE id = ?", rowID).
		Scan(&parentID, &position, &url)
	if err == sql.ErrNoRows {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return unavailable("remove", err)
	}
	if !parentID.Valid {
		return fmt.Errorf("remove %s: %w", id, ErrPermanentNode)
	}

	if !url.Valid {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes WHERE parent_id = ?", rowID).Scan(&count); err != nil {
			return unavailable("remove", err)
		}
		if count > 0 {
			return fmt.Errorf("remove %s: %w", id, ErrFolderNotEmpty)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE id = ?", rowID); err != nil {
		return unavailable("remove", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE nodes SET position = position - 1 WHERE parent_id = ? AND position > ?",
		parentID.Int64, position,
	); err != nil {
		return unavailable("remove", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("remove", err)
	}
	return nil
}

// SetTitle implements Store.
func (s *SQLiteStorage) SetTitle(ctx context.Context, id, title string) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("set title %s: %w", id, ErrNotFound)
	}

	var parentID sql.NullInt64
	err = s.db.QueryRowContext(ctx, "SELECT parent_id FROM nodes WHERE id = ?", rowID).Scan(&parentID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("set title %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return unavailable("set title", err)
	}
	if !parentID.Valid {
		return fmt.Errorf("set title %s: %w", id, ErrPermanentNode)
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE nodes SET title = ? WHERE id = ?", title, rowID); err != nil {
		return unavailable("set title", err)
	}
	return nil
}

// Import implements Importer. Bookmarks whose URL is already stored are skipped.
// Uses a transaction for atomicity - all or nothing.
func (s *SQLiteStorage) Import(ctx context.Context, parentID string, nodes []model.TreeNode) (ImportResult, error) {
	parent := int64(sqliteOtherID)
	if parentID != "" {
		id, err := strconv.ParseInt(parentID, 10, 64)
		if err != nil {
			return ImportResult{}, fmt.Errorf("import into %s: %w", parentID, ErrNotFound)
		}
		parent = id
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, unavailable("import", err)
	}
	defer tx.Rollback()

	var url sql.NullString
	err = tx.QueryRowContext(ctx, "SELECT url FROM nodes WHERE id = ?", parent).Scan(&url)
	if err == sql.ErrNoRows || (err == nil && url.Valid) {
		return ImportResult{}, fmt.Errorf("import into %d: %w", parent, ErrNotFound)
	}
	if err != nil {
		return ImportResult{}, unavailable("import", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (parent_id, position, title, url, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return ImportResult{}, unavailable("import", err)
	}
	defer insert.Close()

	var result ImportResult
	var insertAll func(parent int64, nodes []model.TreeNode) error
	insertAll = func(parent int64, nodes []model.TreeNode) error {
		var position int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM nodes WHERE parent_id = ?", parent,
		).Scan(&position); err != nil {
			return err
		}

		for _, n := range nodes {
			if n.URL != "" {
				var exists int
				if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes WHERE url = ?", n.URL).Scan(&exists); err != nil {
					return err
				}
				if exists > 0 {
					result.Skipped++
					continue
				}
			}

			createdAt := n.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			var lastUsedAt *string
			if n.LastUsedAt != nil {
				v := n.LastUsedAt.UTC().Format(time.RFC3339)
				lastUsedAt = &v
			}
			var nodeURL *string
			if n.URL != "" {
				nodeURL = &n.URL
			}

			res, err := insert.ExecContext(ctx, parent, position, n.Title, nodeURL,
				createdAt.UTC().Format(time.RFC3339), lastUsedAt)
			if err != nil {
				return err
			}
			position++

			if n.URL != "" {
				result.Bookmarks++
				continue
			}
			result.Folders++
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			if err := insertAll(id, n.Children); err != nil {
				return err
			}
		}
		return nil
	}

	if err := insertAll(parent, nodes); err != nil {
		return ImportResult{}, unavailable("import", err)
	}
	if err := tx.Commit(); err != nil {
		return ImportResult{}, unavailable("import", err)
	}
	return result, nil
}
