package model

import "time"

// TreeNode is a node in a bookmark store's tree.
// A node with a URL is a bookmark, a node without one is a folder.
type TreeNode struct {
	ID         string     `json:"id"`
	ParentID   string     `json:"parentId,omitempty"` // "" = top level
	Index      int        `json:"index"`
	Title      string     `json:"title"`
	URL        string     `json:"url,omitempty"`
	CreatedAt  time.Time  `json:"dateAdded"`
	LastUsedAt *time.Time `json:"dateLastUsed,omitempty"` // nil = never used
	Children   []TreeNode `json:"children,omitempty"`
}

// IsBookmark returns true if the node carries a URL.
func (n TreeNode) IsBookmark() bool {
	return n.URL != ""
}

// NewFolderParams holds parameters for creating a folder node.
type NewFolderParams struct {
	Title    string
	Children []TreeNode
}

// NewFolder creates a folder node without an ID. Stores assign IDs on insert.
func NewFolder(params NewFolderParams) TreeNode {
	children := params.Children
	if children == nil {
		children = []TreeNode{}
	}
	return TreeNode{
		Title:     params.Title,
		CreatedAt: time.Now(),
		Children:  children,
	}
}

// NewBookmarkParams holds parameters for creating a bookmark node.
type NewBookmarkParams struct {
	Title     string
	URL       string
	CreatedAt time.Time // zero = now
}

// NewBookmark creates a bookmark node without an ID.
func NewBookmark(params NewBookmarkParams) TreeNode {
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return TreeNode{
		Title:     params.Title,
		URL:       params.URL,
		CreatedAt: createdAt,
	}
}
