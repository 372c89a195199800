package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nikbrunner/bmpop/internal/model"
)

// Chrome's permanent folders. "0" is the synthetic root returned by
// chrome.bookmarks.getTree.
const (
	chromeRootID        = "0"
	chromeBookmarkBarID = "1"
	chromeOtherID       = "2"
	chromeSyncedID      = "3"
)

// webkitEpochOffset is the number of microseconds between 1601-01-01 and 1970-01-01.
const webkitEpochOffset = 11644473600000000

// ChromeStore implements Store on a Chrome/Chromium "Bookmarks" profile file.
// Writes replace the file atomically and keep Chrome's checksum valid.
type ChromeStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewChromeStore creates a ChromeStore for the given Bookmarks file.
func NewChromeStore(path string) *ChromeStore {
	return &ChromeStore{path: path, now: time.Now}
}

// Path returns the Bookmarks file path.
func (s *ChromeStore) Path() string {
	return s.path
}

// Close implements Backend.
func (s *ChromeStore) Close() error {
	return nil
}

// The Chrome file types keep keys they do not model in extra and write them
// back on save, so fields added by newer Chrome versions survive a rewrite.

type chromeFile struct {
	Checksum     string      `json:"checksum"`
	Roots        chromeRoots `json:"roots"`
	SyncMetadata string      `json:"sync_metadata,omitempty"`
	Version      int         `json:"version"`

	extra rawFields
}

type chromeRoots struct {
	BookmarkBar chromeNode `json:"bookmark_bar"`
	Other       chromeNode `json:"other"`
	Synced      chromeNode `json:"synced"`

	extra rawFields
}

type chromeNode struct {
	// Children is a pointer so folders always serialize "children": []
	// and URL nodes never carry the key.
	Children     *[]chromeNode     `json:"children,omitempty"`
	DateAdded    string            `json:"date_added"`
	DateLastUsed string            `json:"date_last_used,omitempty"`
	DateModified string            `json:"date_modified,omitempty"`
	GUID         string            `json:"guid"`
	ID           string            `json:"id"`
	MetaInfo     map[string]string `json:"meta_info,omitempty"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	URL          string            `json:"url,omitempty"`

	extra rawFields
}

func (n *chromeNode) children() []chromeNode {
	if n.Children == nil {
		return nil
	}
	return *n.Children
}

func (r *chromeRoots) all() []*chromeNode {
	return []*chromeNode{&r.BookmarkBar, &r.Other, &r.Synced}
}

// FetchTree implements Store. The result mirrors chrome.bookmarks.getTree:
// a single root "0" whose children are the permanent folders.
func (s *ChromeStore) FetchTree(ctx context.Context) ([]model.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("fetch tree", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	root := model.TreeNode{ID: chromeRootID, Children: []model.TreeNode{}}
	for i, r := range f.Roots.all() {
		root.Children = append(root.Children, toTreeNode(*r, chromeRootID, i))
	}
	return []model.TreeNode{root}, nil
}

// Remove implements Store. Permanent folders and non-empty folders are refused.
func (s *ChromeStore) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("remove", err)
	}
	if isChromePermanent(id) {
		return fmt.Errorf("remove %s: %w", id, ErrPermanentNode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}

	parent, idx := findChromeParent(f.Roots.all(), id)
	if parent == nil {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	siblings := *parent.Children
	if siblings[idx].Type == "folder" && len(siblings[idx].children()) > 0 {
		return fmt.Errorf("remove %s: %w", id, ErrFolderNotEmpty)
	}

	siblings = append(siblings[:idx], siblings[idx+1:]...)
	parent.Children = &siblings
	parent.DateModified = toWebKit(s.now())

	return s.save(f)
}

// SetTitle implements Store.
func (s *ChromeStore) SetTitle(ctx context.Context, id, title string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set title", err)
	}
	if isChromePermanent(id) {
		return fmt.Errorf("set title %s: %w", id, ErrPermanentNode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}

	parent, idx := findChromeParent(f.Roots.all(), id)
	if parent == nil {
		return fmt.Errorf("set title %s: %w", id, ErrNotFound)
	}
	(*parent.Children)[idx].Name = title

	return s.save(f)
}

// Import implements Importer. New nodes get IDs after the largest existing
// ID and fresh GUIDs.
func (s *ChromeStore) Import(ctx context.Context, parentID string, nodes []model.TreeNode) (ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return ImportResult{}, unavailable("import", err)
	}
	if parentID == "" {
		parentID = chromeOtherID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return ImportResult{}, err
	}

	var parent *chromeNode
	nextID := int64(0)
	existing := make(map[string]bool)
	walkChrome(f.Roots.all(), func(n *chromeNode) {
		if id, err := strconv.ParseInt(n.ID, 10, 64); err == nil && id >= nextID {
			nextID = id + 1
		}
		if n.ID == parentID && n.Type == "folder" {
			parent = n
		}
		if n.URL != "" {
			existing[n.URL] = true
		}
	})
	if parent == nil {
		return ImportResult{}, fmt.Errorf("import into %s: %w", parentID, ErrNotFound)
	}

	var result ImportResult
	var convert func(nodes []model.TreeNode) []chromeNode
	convert = func(nodes []model.TreeNode) []chromeNode {
		out := []chromeNode{}
		for _, n := range nodes {
			if n.URL != "" && existing[n.URL] {
				result.Skipped++
				continue
			}
			c := chromeNode{
				DateAdded: toWebKit(n.CreatedAt),
				GUID:      uuid.New().String(),
				ID:        strconv.FormatInt(nextID, 10),
				Name:      n.Title,
			}
			nextID++
			if n.URL != "" {
				existing[n.URL] = true
				c.Type = "url"
				c.URL = n.URL
				result.Bookmarks++
			} else {
				c.Type = "folder"
				c.DateModified = c.DateAdded
				children := convert(n.Children)
				c.Children = &children
				result.Folders++
			}
			out = append(out, c)
		}
		return out
	}

	merged := append(parent.children(), convert(nodes)...)
	parent.Children = &merged
	parent.DateModified = toWebKit(s.now())

	if err := s.save(f); err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

func (s *ChromeStore) load() (*chromeFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, unavailable("read bookmarks file", err)
	}
	var f chromeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, unavailable("decode bookmarks file", err)
	}
	return &f, nil
}

// save writes f to a temp file in the same directory and renames it over the original.
func (s *ChromeStore) save(f *chromeFile) error {
	f.Checksum = chromeChecksum(&f.Roots)

	data, err := json.MarshalIndent(f, "", "   ")
	if err != nil {
		return fmt.Errorf("encode bookmarks file: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".bookmarks-*.tmp")
	if err != nil {
		return unavailable("write bookmarks file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return unavailable("write bookmarks file", err)
	}
	if err := tmp.Close(); err != nil {
		return unavailable("write bookmarks file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return unavailable("replace bookmarks file", err)
	}
	return nil
}

func isChromePermanent(id string) bool {
	switch id {
	case chromeRootID, chromeBookmarkBarID, chromeOtherID, chromeSyncedID:
		return true
	}
	return false
}

// findChromeParent returns the folder holding id and the node's index in it.
func findChromeParent(roots []*chromeNode, id string) (*chromeNode, int) {
	stack := roots
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Children == nil {
			continue
		}
		for i := range *n.Children {
			child := &(*n.Children)[i]
			if child.ID == id {
				return n, i
			}
			stack = append(stack, child)
		}
	}
	return nil, -1
}

// walkChrome calls fn for every node under roots, including the roots.
func walkChrome(roots []*chromeNode, fn func(n *chromeNode)) {
	stack := append([]*chromeNode(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		if n.Children == nil {
			continue
		}
		for i := range *n.Children {
			stack = append(stack, &(*n.Children)[i])
		}
	}
}

func toTreeNode(c chromeNode, parentID string, index int) model.TreeNode {
	n := model.TreeNode{
		ID:         c.ID,
		ParentID:   parentID,
		Index:      index,
		Title:      c.Name,
		CreatedAt:  fromWebKit(c.DateAdded),
		LastUsedAt: fromWebKitPtr(c.DateLastUsed),
	}
	if c.Type == "url" {
		n.URL = c.URL
		return n
	}
	children := c.children()
	n.Children = make([]model.TreeNode, 0, len(children))
	for i, child := range children {
		n.Children = append(n.Children, toTreeNode(child, c.ID, i))
	}
	return n
}

// fromWebKit parses a WebKit timestamp (microseconds since 1601-01-01 UTC).
func fromWebKit(s string) time.Time {
	us, err := strconv.ParseInt(s, 10, 64)
	if err != nil || us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us - webkitEpochOffset).UTC()
}

func fromWebKitPtr(s string) *time.Time {
	t := fromWebKit(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func toWebKit(t time.Time) string {
	if t.IsZero() {
		return "0"
	}
	return strconv.FormatInt(t.UnixMicro()+webkitEpochOffset, 10)
}
