package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/nikbrunner/bmpop/internal/search"
	"github.com/nikbrunner/bmpop/internal/tui/layout"
)

// Mode is the input mode of the App.
type Mode int

const (
	ModeNormal Mode = iota
	ModeEdit        // inline title edit of one record
	ModeFilter      // typing a filter query
	ModeHelp
)

// MessageType selects the styling of the status line.
type MessageType int

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageError
)

// FilterState holds the fuzzy filter over the list.
type FilterState struct {
	Input textinput.Model
	Query string // active query (persists after closing the input)
}

// NewFilterState creates a FilterState with an initialized input.
func NewFilterState(cfg layout.LayoutConfig) FilterState {
	input := textinput.New()
	input.Placeholder = "Filter..."
	input.CharLimit = cfg.Input.FilterCharLimit
	input.Width = cfg.Input.FilterWidth
	input.Cursor.SetMode(cursor.CursorStatic)
	return FilterState{Input: input}
}

// Apply returns the records matching the active query.
func (f *FilterState) Apply(records []model.Record) []model.Record {
	return search.Filter(records, f.Query)
}

// Reset clears the filter.
func (f *FilterState) Reset() {
	f.Input.Reset()
	f.Input.Blur()
	f.Query = ""
}

// EditState holds the text input of the inline title edit.
type EditState struct {
	Input    textinput.Model
	RecordID string
}

// NewEditState creates an EditState with an initialized input.
func NewEditState(cfg layout.LayoutConfig) EditState {
	input := textinput.New()
	input.Placeholder = "Title"
	input.Prompt = ""
	input.CharLimit = cfg.Input.TitleCharLimit
	input.Width = cfg.Input.StandardWidth
	input.Cursor.SetMode(cursor.CursorStatic)
	return EditState{Input: input}
}

// Start seeds the input with the draft title and focuses it.
func (e *EditState) Start(recordID, draft string) {
	e.RecordID = recordID
	e.Input.SetValue(draft)
	e.Input.CursorEnd()
	e.Input.Focus()
}

// Reset clears the input.
func (e *EditState) Reset() {
	e.RecordID = ""
	e.Input.Reset()
	e.Input.Blur()
}
