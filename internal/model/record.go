package model

import "time"

// Record is the flat, list-facing projection of a bookmark node.
type Record struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	CreatedAt  time.Time  `json:"dateAdded"`
	Index      int        `json:"index"`
	ParentID   string     `json:"parentId"`
	LastUsedAt *time.Time `json:"dateLastUsed,omitempty"`

	// Editing is UI state only. It is false on every fresh derivation.
	Editing bool `json:"-"`
}

// NewRecord projects a bookmark node into a Record.
func NewRecord(n TreeNode) Record {
	return Record{
		ID:         n.ID,
		Title:      n.Title,
		URL:        n.URL,
		CreatedAt:  n.CreatedAt,
		Index:      n.Index,
		ParentID:   n.ParentID,
		LastUsedAt: copyTime(n.LastUsedAt),
	}
}

// Clone returns r with its own copy of LastUsedAt.
func (r Record) Clone() Record {
	r.LastUsedAt = copyTime(r.LastUsedAt)
	return r
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
