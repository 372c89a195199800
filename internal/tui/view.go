package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/nikbrunner/bmpop/internal/tui/layout"
)

const (
	emptyText     = "There are no bookmarks."
	noMatchesText = "(no matches)"
	loadingText   = "Loading..."
	editMarker    = "✎ "
)

// renderView creates the popup: header, list pane, details and help bar.
func (a App) renderView() string {
	if a.mode == ModeHelp {
		return a.renderHelpOverlay()
	}

	paneHeight := layout.CalculatePaneHeight(a.height, a.layoutConfig.Pane)
	paneWidth := layout.CalculatePaneWidth(a.width, a.layoutConfig.Pane)

	content := a.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			a.renderHeader(),
			a.renderListPane(paneWidth, paneHeight),
			a.renderDetails(paneWidth),
			a.renderHelpBar(),
		),
	)

	// Use Place to ensure exact terminal dimensions and prevent overflow
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

// renderHeader renders the app name with the record count.
func (a App) renderHeader() string {
	total := len(a.records)
	count := fmt.Sprintf("%d bookmarks", total)
	if total == 1 {
		count = "1 bookmark"
	}
	if a.filter.Query != "" {
		count = fmt.Sprintf("%d/%d", len(a.Records()), total)
	}
	return a.styles.Title.Render("bmpop") + " " + a.styles.Empty.Render(count)
}

func (a App) renderListPane(width, height int) string {
	var content strings.Builder

	headerLines := 0
	if a.mode == ModeFilter || a.filter.Query != "" {
		headerLines = 1
	}
	visibleHeight := layout.CalculateVisibleHeight(height, headerLines)
	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	if a.mode == ModeFilter {
		content.WriteString("/" + a.filter.Input.View() + "\n")
	} else if a.filter.Query != "" {
		content.WriteString(a.styles.Filter.Render("/"+a.filter.Query) + "\n")
	}

	visible := a.Records()

	switch {
	case !a.loaded:
		content.WriteString(a.styles.Empty.Render(loadingText))
	case len(a.records) == 0:
		content.WriteString(a.styles.Empty.Render(emptyText))
	case len(visible) == 0:
		content.WriteString(a.styles.Empty.Render(noMatchesText))
	default:
		offset := layout.CalculateViewportOffset(a.cursor, len(visible), visibleHeight)
		end := min(offset+visibleHeight, len(visible))
		for i := offset; i < end; i++ {
			content.WriteString(a.renderRecord(visible[i], i == a.cursor, itemWidth) + "\n")
		}
	}

	return a.styles.Pane.
		Width(width).
		Height(height).
		Render(strings.TrimRight(content.String(), "\n"))
}

func (a App) renderRecord(rec model.Record, isCursor bool, maxWidth int) string {
	if rec.Editing && a.mode == ModeEdit {
		return a.styles.ItemEditing.Render(editMarker + a.edit.Input.View())
	}

	if isCursor {
		return a.styles.ItemSelected.Render(layout.PadTitle(rec.Title, maxWidth, a.layoutConfig.Text))
	}
	return a.styles.Item.Render(layout.FitTitle(rec.Title, maxWidth, a.layoutConfig.Text))
}

// renderDetails shows the URL and dates of the record under the cursor.
func (a App) renderDetails(width int) string {
	rec, ok := a.selected()
	if !ok {
		return "\n"
	}

	url := layout.FitURL(rec.URL, width, a.layoutConfig.Text)

	dates := "Added " + rec.CreatedAt.Format("2006-01-02")
	if rec.LastUsedAt != nil {
		dates += " · used " + formatTimeAgo(*rec.LastUsedAt)
	}

	return a.styles.URL.Render(url) + "\n" + a.styles.Date.Render(dates)
}

// renderHelpBar renders the message line and the contextual hints.
func (a App) renderHelpBar() string {
	msg := ""
	if a.messageText != "" {
		msg = a.renderMessageLine()
	}
	return msg + "\n" + a.renderHints(a.getContextualHints())
}

// renderMessageLine renders the styled message with prefix icon based on type.
func (a App) renderMessageLine() string {
	switch a.messageType {
	case MessageError:
		return a.styles.MsgError.Render("✗ " + a.messageText)
	case MessageSuccess:
		return a.styles.MsgSuccess.Render("✓ " + a.messageText)
	default:
		return a.styles.MsgInfo.Render(a.messageText)
	}
}

func (a App) renderHelpOverlay() string {
	width := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal.DefaultWidthPercent, a.layoutConfig.Modal)
	keyCol := lipgloss.NewStyle().Width(a.layoutConfig.Modal.HelpKeyColumnWidth)

	section := func(title string, bindings ...key.Binding) string {
		var b strings.Builder
		b.WriteString(a.styles.Title.Render(title) + "\n")
		for _, kb := range bindings {
			h := kb.Help()
			b.WriteString(keyCol.Render(h.Key) + h.Desc + "\n")
		}
		return b.String()
	}

	k := a.keys
	body := lipgloss.JoinVertical(lipgloss.Left,
		section("nav", k.Up, k.Down, k.Top, k.Bottom),
		section("act", k.Open, k.YankURL, k.Filter, k.Refresh),
		section("edit", k.Edit, k.Confirm, k.Cancel, k.Delete),
		a.styles.HintDesc.Render("[?/esc] close  [q] quit"),
	)

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Left,
		lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Width(width).Render(body),
	)
}

// formatTimeAgo formats a duration since a timestamp in human-readable form.
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	if d < time.Minute {
		return "just now"
	} else if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
