package picker

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/nikbrunner/bmpop/internal/search"
	"github.com/nikbrunner/bmpop/internal/tui/layout"
)

func TestPicker_InitialState(t *testing.T) {
	results := []search.SearchResult{
		{Record: model.Record{ID: "1", Title: "GitHub", URL: "https://github.com"}},
		{Record: model.Record{ID: "2", Title: "GitLab", URL: "https://gitlab.com"}},
	}

	p := New(results, "git")

	if p.cursor != 0 {
		t.Errorf("expected cursor at 0, got %d", p.cursor)
	}
	if len(p.results) != 2 {
		t.Errorf("expected 2 results, got %d", len(p.results))
	}
}

func TestPicker_NavigateDown(t *testing.T) {
	results := []search.SearchResult{
		{Record: model.Record{ID: "1", Title: "GitHub", URL: "https://github.com"}},
		{Record: model.Record{ID: "2", Title: "GitLab", URL: "https://gitlab.com"}},
	}

	p := New(results, "git")
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}

	newModel, _ := p.Update(msg)
	p = newModel.(Picker)

	if p.cursor != 1 {
		t.Errorf("expected cursor at 1, got %d", p.cursor)
	}
}

func TestPicker_NavigateUp(t *testing.T) {
	results := []search.SearchResult{
		{Record: model.Record{ID: "1", Title: "GitHub", URL: "https://github.com"}},
		{Record: model.Record{ID: "2", Title: "GitLab", URL: "https://gitlab.com"}},
	}

	p := New(results, "git")
	// Move down first
	p.cursor = 1

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	newModel, _ := p.Update(msg)
	p = newModel.(Picker)

	if p.cursor != 0 {
		t.Errorf("expected cursor at 0, got %d", p.cursor)
	}
}

func TestPicker_BoundsCheck(t *testing.T) {
	results := []search.SearchResult{
		{Record: model.Record{ID: "1", Title: "GitHub", URL: "https://github.com"}},
	}

	p := New(results, "git")

	// Try to go up from 0 (should stay at 0)
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	newModel, _ := p.Update(msg)
	p = newModel.(Picker)

	if p.cursor != 0 {
		t.Errorf("expected cursor at 0, got %d", p.cursor)
	}

	// Try to go down from last (should stay at last)
	msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	newModel, _ = p.Update(msg)
	p = newModel.(Picker)

	if p.cursor != 0 {
		t.Errorf("expected cursor at 0 (only 1 item), got %d", p.cursor)
	}
}

func TestPicker_SelectItem(t *testing.T) {
	results := []search.SearchResult{
		{Record: model.Record{ID: "1", Title: "GitHub", URL: "https://github.com", CreatedAt: time.Now()}},
		{Record: model.Record{ID: "2", Title: "GitLab", URL: "https://gitlab.com", CreatedAt: time.Now()}},
	}

	p := New(results, "git")
	p.cursor = 1 // Select GitLab

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	newModel, cmd := p.Update(msg)
	p = newModel.(Picker)

	if !p.selected {
		t.Error("expected selected to be true after Enter")
	}

	// Should return quit command
	if cmd == nil {
		t.Error("expected quit command after selection")
	}
}

func TestPicker_Cancel(t *testing.T) {
	results := []search.SearchResult{
		{Record: model.Record{ID: "1", Title: "GitHub", URL: "https://github.com"}},
	}

	p := New(results, "git")

	msg := tea.KeyMsg{Type: tea.KeyEsc}
	newModel, cmd := p.Update(msg)
	p = newModel.(Picker)

	if !p.cancelled {
		t.Error("expected cancelled to be true after Esc")
	}
	if cmd == nil {
		t.Error("expected quit command after cancel")
	}
}

func TestPicker_SelectedRecord(t *testing.T) {
	rec := model.Record{ID: "1", Title: "GitHub", URL: "https://github.com", CreatedAt: time.Now()}
	results := []search.SearchResult{
		{Record: rec},
	}

	p := New(results, "git")
	p.selected = true

	got, ok := p.SelectedRecord()
	if !ok || got.ID != rec.ID {
		t.Errorf("expected selected record to be returned")
	}
}

func TestPicker_SelectedRecord_Cancelled(t *testing.T) {
	results := []search.SearchResult{
		{Record: model.Record{ID: "1", Title: "GitHub", URL: "https://github.com"}},
	}

	p := New(results, "git")
	p.cancelled = true

	if _, ok := p.SelectedRecord(); ok {
		t.Error("expected no record when cancelled")
	}
}

func TestPicker_ArrowKeys(t *testing.T) {
	results := []search.SearchResult{
		{Record: model.Record{ID: "1", Title: "GitHub", URL: "https://github.com"}},
		{Record: model.Record{ID: "2", Title: "GitLab", URL: "https://gitlab.com"}},
	}

	p := New(results, "git")

	// Test down arrow
	msg := tea.KeyMsg{Type: tea.KeyDown}
	newModel, _ := p.Update(msg)
	p = newModel.(Picker)
	if p.cursor != 1 {
		t.Errorf("expected cursor at 1 after down arrow, got %d", p.cursor)
	}

	// Test up arrow
	msg = tea.KeyMsg{Type: tea.KeyUp}
	newModel, _ = p.Update(msg)
	p = newModel.(Picker)
	if p.cursor != 0 {
		t.Errorf("expected cursor at 0 after up arrow, got %d", p.cursor)
	}
}

func TestPicker_ViewHighlightsAndScrolls(t *testing.T) {
	var results []search.SearchResult
	for i := 0; i < 30; i++ {
		results = append(results, search.SearchResult{
			Record:         model.Record{ID: fmt.Sprint(i + 1), Title: fmt.Sprintf("Result %02d", i), URL: "https://example.com"},
			MatchedIndexes: []int{0},
		})
	}

	p := New(results, "res")
	newModel, _ := p.Update(tea.WindowSizeMsg{Width: 60, Height: 15})
	p = newModel.(Picker)
	p.cursor = 20

	view := layout.StripANSI(p.View())

	if !strings.Contains(view, "Search: res (30 results)") {
		t.Errorf("missing header in %q", view)
	}
	if !strings.Contains(view, "> Result 20") {
		t.Errorf("cursor row not visible in %q", view)
	}
	if strings.Contains(view, "Result 00") {
		t.Errorf("first row should have scrolled out of view")
	}
}

func TestPicker_ViewNonASCIITitle(t *testing.T) {
	results := search.FuzzySearch([]model.Record{
		{ID: "1", Title: "café bar", URL: "https://café.example/menu/"},
	}, "bar")

	p := New(results, "bar")
	newModel, _ := p.Update(tea.WindowSizeMsg{Width: 60, Height: 15})
	p = newModel.(Picker)

	view := layout.StripANSI(p.View())

	if !strings.Contains(view, "> café bar") {
		t.Errorf("title garbled in %q", view)
	}
	if !strings.Contains(view, "   café.example/menu\n") {
		t.Errorf("url not shortened in %q", view)
	}
}
