// Package popup holds the state behind the bookmark popup: the flat record
// list derived from the store and the single inline edit.
package popup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nikbrunner/bmpop/internal/logger"
	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/nikbrunner/bmpop/internal/storage"
)

var (
	ErrRecordNotFound = errors.New("record not in list")
	ErrNotEditing     = errors.New("no record is being edited")
)

// Edit is the inline edit in progress. At most one exists at a time.
type Edit struct {
	RecordID   string
	DraftTitle string
}

// CoordinatorParams holds parameters for creating a Coordinator.
type CoordinatorParams struct {
	Store  storage.Store
	Logger logger.Logger // optional
}

// Coordinator applies mutations to the store and re-derives the flat list
// from a fresh fetch after each confirmed one. Nothing is patched locally.
//
// A Coordinator is safe for concurrent use. Store calls run without holding
// the lock.
type Coordinator struct {
	store storage.Store
	log   logger.Logger

	mu      sync.Mutex
	records []model.Record
	edit    *Edit
	// Fetch generations; a slower, older fetch never replaces a newer list.
	nextGen    uint64
	appliedGen uint64
}

// NewCoordinator creates a Coordinator with an empty list. Call Load to fill it.
func NewCoordinator(p CoordinatorParams) *Coordinator {
	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		store:   p.Store,
		log:     log.With(logger.String("component", "popup")),
		records: []model.Record{},
	}
}

// Load replaces the list with a fresh fetch. The edit is dropped.
// On failure the list is left as it was.
func (c *Coordinator) Load(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		c.log.Warn("load failed", logger.Error(err))
		return fmt.Errorf("load bookmarks: %w", err)
	}
	c.log.Debug("loaded bookmarks", logger.Int("count", c.Len()))
	return nil
}

// Delete removes the bookmark from the store and recomputes the list.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if err := c.store.Remove(ctx, id); err != nil {
		c.log.Warn("delete failed", logger.String("id", id), logger.Error(err))
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if err := c.refresh(ctx); err != nil {
		c.log.Warn("refresh after delete failed", logger.String("id", id), logger.Error(err))
		return fmt.Errorf("delete %s: refresh: %w", id, err)
	}
	c.log.Debug("deleted bookmark", logger.String("id", id))
	return nil
}

// Update sets the bookmark's title in the store and recomputes the list.
func (c *Coordinator) Update(ctx context.Context, id, title string) error {
	if err := c.store.SetTitle(ctx, id, title); err != nil {
		c.log.Warn("update failed", logger.String("id", id), logger.Error(err))
		return fmt.Errorf("update %s: %w", id, err)
	}
	if err := c.refresh(ctx); err != nil {
		c.log.Warn("refresh after update failed", logger.String("id", id), logger.Error(err))
		return fmt.Errorf("update %s: refresh: %w", id, err)
	}
	c.log.Debug("updated bookmark", logger.String("id", id), logger.String("title", title))
	return nil
}

// CommitEdit writes the draft title of the current edit.
func (c *Coordinator) CommitEdit(ctx context.Context) error {
	edit := c.Editing()
	if edit == nil {
		return ErrNotEditing
	}
	return c.Update(ctx, edit.RecordID, edit.DraftTitle)
}

// ToggleEdit starts editing the record, or cancels if it is already the one
// being edited. Starting an edit on another record cancels the current one.
// The draft starts as the record's title. The store is not touched.
func (c *Coordinator) ToggleEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("toggle edit %s: %w", id, ErrRecordNotFound)
	}
	if c.edit != nil && c.edit.RecordID == id {
		c.edit = nil
		return nil
	}
	c.edit = &Edit{RecordID: id, DraftTitle: c.records[i].Title}
	return nil
}

// CancelEdit drops the current edit, if any.
func (c *Coordinator) CancelEdit() {
	c.mu.Lock()
	c.edit = nil
	c.mu.Unlock()
}

// SetDraft replaces the draft title of the current edit.
func (c *Coordinator) SetDraft(title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.edit == nil {
		return ErrNotEditing
	}
	c.edit.DraftTitle = title
	return nil
}

// Records returns a copy of the list. Editing is set on the edited record only.
func (c *Coordinator) Records() []model.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Record, len(c.records))
	for i, r := range c.records {
		out[i] = r.Clone()
	}
	if c.edit != nil {
		if i := c.indexOf(c.edit.RecordID); i >= 0 {
			out[i].Editing = true
		}
	}
	return out
}

// Record returns the record with the given id.
func (c *Coordinator) Record(id string) (model.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return model.Record{}, false
	}
	r := c.records[i].Clone()
	r.Editing = c.edit != nil && c.edit.RecordID == id
	return r, true
}

// Editing returns a copy of the current edit, or nil.
func (c *Coordinator) Editing() *Edit {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.edit == nil {
		return nil
	}
	e := *c.edit
	return &e
}

// Len returns the number of records.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// refresh fetches and flattens the tree, then swaps it in and clears the edit.
func (c *Coordinator) refresh(ctx context.Context) error {
	c.mu.Lock()
	c.nextGen++
	gen := c.nextGen
	c.mu.Unlock()

	tree, err := c.store.FetchTree(ctx)
	if err != nil {
		return err
	}
	records := model.Flatten(tree)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.appliedGen {
		return nil
	}
	c.appliedGen = gen
	c.records = records
	c.edit = nil
	return nil
}

func (c *Coordinator) indexOf(id string) int {
	for i := range c.records {
		if c.records[i].ID == id {
			return i
		}
	}
	return -1
}
