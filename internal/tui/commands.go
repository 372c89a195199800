package tui

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nikbrunner/bmpop/internal/model"
)

const (
	opDelete = "Delete"
	opRename = "Rename"
)

type loadedMsg struct {
	err error
}

type mutatedMsg struct {
	op    string
	id    string
	title string // deleted title or new title
	err   error
}

// StoreChangedMsg tells the App the store changed outside of it.
// Send it with tea.Program.Send; the App reloads once it is idle.
type StoreChangedMsg struct{}

type statusMsg struct {
	kind MessageType
	text string
}

func (a App) loadCmd() tea.Cmd {
	coord, timeout := a.coord, a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return loadedMsg{err: coord.Load(ctx)}
	}
}

func (a App) deleteCmd(rec model.Record) tea.Cmd {
	coord, timeout := a.coord, a.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := coord.Delete(ctx, rec.ID)
		return mutatedMsg{op: opDelete, id: rec.ID, title: rec.Title, err: err}
	}
}

func (a App) commitCmd(id string) tea.Cmd {
	coord, timeout := a.coord, a.timeout
	return func() tea.Msg {
		var title string
		if e := coord.Editing(); e != nil {
			title = e.DraftTitle
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := coord.CommitEdit(ctx)
		return mutatedMsg{op: opRename, id: id, title: title, err: err}
	}
}

func (a App) yankCmd(rec model.Record) tea.Cmd {
	copyURL := a.copyURL
	return func() tea.Msg {
		if err := copyURL(rec.URL); err != nil {
			return statusMsg{kind: MessageError, text: "Copy failed: " + err.Error()}
		}
		return statusMsg{kind: MessageSuccess, text: "Copied " + rec.URL}
	}
}

func (a App) openCmd(rec model.Record) tea.Cmd {
	openURL := a.openURL
	return func() tea.Msg {
		if err := openURL(rec.URL); err != nil {
			return statusMsg{kind: MessageError, text: "Open failed: " + err.Error()}
		}
		return statusMsg{kind: MessageInfo, text: "Opened " + rec.Title}
	}
}

func systemCopy(url string) error {
	return clipboard.WriteAll(url)
}

// OpenInBrowser opens a URL in the default browser.
func OpenInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
