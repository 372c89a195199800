package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/nikbrunner/bmpop/internal/model"
)

// Op names a Store operation for fault injection.
type Op int

const (
	OpFetch Op = iota
	OpRemove
	OpSetTitle
)

// MemoryStore keeps the tree in memory. It follows the same rules as the
// persistent backends and can be told to fail a specific operation.
type MemoryStore struct {
	mu       sync.Mutex
	tree     []model.TreeNode
	nextID   int64
	failures map[Op]error
}

// NewMemoryStore creates a MemoryStore holding a copy of tree.
// New IDs continue after the largest numeric ID in tree.
func NewMemoryStore(tree []model.TreeNode) *MemoryStore {
	s := &MemoryStore{
		tree:     model.CloneTree(tree),
		failures: make(map[Op]error),
	}
	if s.tree == nil {
		s.tree = []model.TreeNode{}
	}
	model.Walk(s.tree, func(n model.TreeNode) bool {
		if id, err := strconv.ParseInt(n.ID, 10, 64); err == nil && id >= s.nextID {
			s.nextID = id + 1
		}
		return true
	})
	if s.nextID == 0 {
		s.nextID = 1
	}
	return s
}

// FailNext makes the next call of op return err.
func (s *MemoryStore) FailNext(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *MemoryStore) takeFailure(op Op) error {
	err, ok := s.failures[op]
	if ok {
		delete(s.failures, op)
	}
	return err
}

// FetchTree implements Store.
func (s *MemoryStore) FetchTree(ctx context.Context) ([]model.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("fetch tree", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(OpFetch); err != nil {
		return nil, err
	}
	return model.CloneTree(s.tree), nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("remove", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(OpRemove); err != nil {
		return err
	}
	n := model.FindNode(s.tree, id)
	if n == nil {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	if n.URL == "" && len(n.Children) > 0 {
		return fmt.Errorf("remove %s: %w", id, ErrFolderNotEmpty)
	}
	model.RemoveNode(&s.tree, id)
	return nil
}

// SetTitle implements Store.
func (s *MemoryStore) SetTitle(ctx context.Context, id, title string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set title", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(OpSetTitle); err != nil {
		return err
	}
	n := model.FindNode(s.tree, id)
	if n == nil {
		return fmt.Errorf("set title %s: %w", id, ErrNotFound)
	}
	n.Title = title
	return nil
}

// Import implements Importer. An empty parentID appends at the top level.
func (s *MemoryStore) Import(ctx context.Context, parentID string, nodes []model.TreeNode) (ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return ImportResult{}, unavailable("import", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := &s.tree
	if parentID != "" {
		parent := model.FindNode(s.tree, parentID)
		if parent == nil || parent.URL != "" {
			return ImportResult{}, fmt.Errorf("import into %s: %w", parentID, ErrNotFound)
		}
		target = &parent.Children
	}

	var result ImportResult
	*target = append(*target, s.assign(model.CloneTree(nodes), parentID, len(*target), &result)...)
	return result, nil
}

// assign gives nodes fresh IDs and positions, recursively.
func (s *MemoryStore) assign(nodes []model.TreeNode, parentID string, offset int, result *ImportResult) []model.TreeNode {
	for i := range nodes {
		nodes[i].ID = strconv.FormatInt(s.nextID, 10)
		s.nextID++
		nodes[i].ParentID = parentID
		nodes[i].Index = offset + i
		if nodes[i].URL != "" {
			nodes[i].Children = nil
			result.Bookmarks++
			continue
		}
		result.Folders++
		nodes[i].Children = s.assign(nodes[i].Children, nodes[i].ID, 0, result)
	}
	return nodes
}

// Close implements Backend.
func (s *MemoryStore) Close() error {
	return nil
}
