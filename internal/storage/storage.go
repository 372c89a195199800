package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/nikbrunner/bmpop/internal/model"
)

var (
	ErrNotFound       = errors.New("bookmark not found")
	ErrUnavailable    = errors.New("bookmark store unavailable")
	ErrFolderNotEmpty = errors.New("folder is not empty")
	ErrPermanentNode  = errors.New("root folders cannot be modified")
)

// Store is the external system of record for bookmarks.
type Store interface {
	// FetchTree returns a snapshot of the whole bookmark tree.
	FetchTree(ctx context.Context) ([]model.TreeNode, error)
	// Remove deletes a bookmark or an empty folder.
	Remove(ctx context.Context, id string) error
	// SetTitle renames a bookmark or folder.
	SetTitle(ctx context.Context, id, title string) error
}

// ImportResult reports what an import added.
type ImportResult struct {
	Bookmarks int
	Folders   int
	Skipped   int // bookmarks whose URL already existed
}

// Importer is implemented by stores that can insert new nodes.
type Importer interface {
	// Import inserts nodes under parentID. An empty parentID selects the
	// store's default folder ("Other bookmarks").
	Import(ctx context.Context, parentID string, nodes []model.TreeNode) (ImportResult, error)
}

// Backend is a Store that holds resources.
type Backend interface {
	Store
	Close() error
}

// Backend names accepted by Open.
const (
	BackendChrome = "chrome"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend    string
	ChromePath string
	SQLitePath string
	Redis      RedisOptions
}

// Open opens the configured backend.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Backend {
	case BackendChrome:
		return NewChromeStore(opts.ChromePath), nil
	case BackendSQLite:
		return NewSQLiteStorage(opts.SQLitePath)
	case BackendRedis:
		client, err := ConnectRedis(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, opts.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

// unavailable marks err as a store availability failure.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// DefaultSQLitePath returns the default SQLite database path: ~/.config/bmpop/bookmarks.db
func DefaultSQLitePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "bmpop", "bookmarks.db"), nil
}

// DefaultChromePath returns the Bookmarks file of Chrome's default profile.
func DefaultChromePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "Google", "Chrome", "Default", "Bookmarks"), nil
	case "windows":
		return filepath.Join(homeDir, "AppData", "Local", "Google", "Chrome", "User Data", "Default", "Bookmarks"), nil
	default:
		return filepath.Join(homeDir, ".config", "google-chrome", "Default", "Bookmarks"), nil
	}
}
