package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nikbrunner/bmpop/internal/logger"
	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/nikbrunner/bmpop/internal/popup"
	"github.com/nikbrunner/bmpop/internal/tui/layout"
)

// DefaultTimeout bounds each store operation started from the TUI.
const DefaultTimeout = 10 * time.Second

// App is the main bubbletea model for the bookmark popup.
type App struct {
	coord        *popup.Coordinator
	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig
	log          logger.Logger
	timeout      time.Duration
	copyURL      func(string) error
	openURL      func(string) error

	mode    Mode
	records []model.Record // snapshot of the coordinator's list
	cursor  int            // index into the visible (filtered) list
	filter  FilterState
	edit    EditState
	loaded  bool

	// A store call is in flight; mutating keys are ignored until it reports back.
	busy bool
	// The store changed on disk while busy or editing; reload afterwards.
	pendingRefresh bool

	// For gg command
	lastKeyWasG bool

	messageText string
	messageType MessageType

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Coordinator  *popup.Coordinator
	Keys         *KeyMap              // optional, uses default if nil
	Styles       *Styles              // optional, uses default if nil
	LayoutConfig *layout.LayoutConfig // optional, uses default if nil
	Logger       logger.Logger        // optional
	Timeout      time.Duration        // optional, DefaultTimeout if zero
	// CopyURL and OpenURL default to the system clipboard and browser.
	CopyURL func(url string) error
	OpenURL func(url string) error
}

// NewApp creates a new App with the given parameters. The list is empty
// until the load started by Init completes.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	layoutCfg := layout.DefaultConfig()
	if params.LayoutConfig != nil {
		layoutCfg = *params.LayoutConfig
	}

	log := params.Logger
	if log == nil {
		log = logger.Nop()
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	copyURL := params.CopyURL
	if copyURL == nil {
		copyURL = systemCopy
	}
	openURL := params.OpenURL
	if openURL == nil {
		openURL = OpenInBrowser
	}

	return App{
		coord:        params.Coordinator,
		keys:         keys,
		styles:       styles,
		layoutConfig: layoutCfg,
		log:          log.With(logger.String("component", "tui")),
		timeout:      timeout,
		copyURL:      copyURL,
		openURL:      openURL,
		records:      []model.Record{},
		filter:       NewFilterState(layoutCfg),
		edit:         NewEditState(layoutCfg),
		busy:         true, // initial load
		width:        80,
		height:       24,
	}
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Mode returns the current input mode.
func (a App) Mode() Mode {
	return a.mode
}

// Records returns the visible list (filtered if a filter is active).
func (a App) Records() []model.Record {
	return a.filter.Apply(a.records)
}

// Message returns the status line text.
func (a App) Message() string {
	return a.messageText
}

// Busy reports whether a store call is in flight.
func (a App) Busy() bool {
	return a.busy
}

// WithDimensions returns a copy of the App with the given terminal size.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return a.loadCmd()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case loadedMsg:
		a.busy = false
		a.loaded = true
		if msg.err != nil {
			a.log.Warn("load failed", logger.Error(msg.err))
			a.setMessage(MessageError, "Load failed: "+msg.err.Error())
			return a, nil
		}
		a.syncRecords()
		if a.mode != ModeEdit {
			return a, a.flushPendingRefresh()
		}
		return a, nil

	case mutatedMsg:
		return a.handleMutated(msg)

	case StoreChangedMsg:
		if a.busy || a.mode == ModeEdit {
			a.pendingRefresh = true
			return a, nil
		}
		a.log.Debug("store changed, reloading")
		a.busy = true
		return a, a.loadCmd()

	case statusMsg:
		a.setMessage(msg.kind, msg.text)
		return a, nil

	case tea.KeyMsg:
		switch a.mode {
		case ModeEdit:
			return a.updateEdit(msg)
		case ModeFilter:
			return a.updateFilter(msg)
		case ModeHelp:
			if key.Matches(msg, a.keys.Help, a.keys.Quit, a.keys.Cancel) {
				a.mode = ModeNormal
			}
			return a, nil
		default:
			return a.updateNormal(msg)
		}
	}

	return a, nil
}

func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}

	// Reset g flag for any other key
	a.lastKeyWasG = false

	visible := a.Records()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if len(visible) > 0 && a.cursor < len(visible)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(visible) > 0 {
			a.cursor = len(visible) - 1
		}

	case key.Matches(msg, a.keys.Edit):
		rec, ok := a.selected()
		if !ok || a.busy {
			return a, nil
		}
		if err := a.coord.ToggleEdit(rec.ID); err != nil {
			a.setMessage(MessageError, err.Error())
			return a, nil
		}
		if e := a.coord.Editing(); e != nil {
			a.edit.Start(e.RecordID, e.DraftTitle)
			a.mode = ModeEdit
			a.clearMessage()
		}
		a.syncRecords()

	case key.Matches(msg, a.keys.Delete):
		rec, ok := a.selected()
		if !ok || a.busy {
			return a, nil
		}
		a.busy = true
		a.setMessage(MessageInfo, "Deleting "+rec.Title+"...")
		return a, a.deleteCmd(rec)

	case key.Matches(msg, a.keys.Filter):
		a.mode = ModeFilter
		a.filter.Input.SetValue(a.filter.Query)
		a.filter.Input.CursorEnd()
		a.filter.Input.Focus()

	case key.Matches(msg, a.keys.Cancel):
		if a.filter.Query != "" {
			a.filter.Reset()
			a.cursor = 0
		}
		a.clearMessage()

	case key.Matches(msg, a.keys.YankURL):
		if rec, ok := a.selected(); ok {
			return a, a.yankCmd(rec)
		}

	case key.Matches(msg, a.keys.Open):
		if rec, ok := a.selected(); ok {
			return a, a.openCmd(rec)
		}

	case key.Matches(msg, a.keys.Refresh):
		if a.busy {
			return a, nil
		}
		a.busy = true
		a.pendingRefresh = false
		return a, a.loadCmd()

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp
	}

	return a, nil
}

func (a App) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return a, tea.Quit

	case a.busy:
		// A commit is in flight; the draft is frozen until it settles.
		return a, nil

	case key.Matches(msg, a.keys.Cancel):
		a.coord.CancelEdit()
		a.edit.Reset()
		a.mode = ModeNormal
		a.syncRecords()
		return a, a.flushPendingRefresh()

	case key.Matches(msg, a.keys.Confirm):
		a.busy = true
		return a, a.commitCmd(a.edit.RecordID)
	}

	var cmd tea.Cmd
	a.edit.Input, cmd = a.edit.Input.Update(msg)
	if err := a.coord.SetDraft(a.edit.Input.Value()); err != nil {
		// The edit is gone; leave edit mode.
		a.edit.Reset()
		a.mode = ModeNormal
		a.syncRecords()
	}
	return a, cmd
}

func (a App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return a, tea.Quit

	case key.Matches(msg, a.keys.Cancel):
		a.filter.Reset()
		a.mode = ModeNormal
		a.cursor = 0
		return a, nil

	case key.Matches(msg, a.keys.Confirm):
		a.filter.Query = a.filter.Input.Value()
		a.filter.Input.Blur()
		a.mode = ModeNormal
		a.clampCursor()
		return a, nil
	}

	var cmd tea.Cmd
	a.filter.Input, cmd = a.filter.Input.Update(msg)
	a.filter.Query = a.filter.Input.Value()
	a.cursor = 0
	return a, cmd
}

func (a App) handleMutated(msg mutatedMsg) (tea.Model, tea.Cmd) {
	a.busy = false

	if msg.err != nil {
		a.log.Warn("mutation failed",
			logger.String("op", msg.op),
			logger.String("id", msg.id),
			logger.Error(msg.err))
		a.setMessage(MessageError, msg.op+" failed: "+msg.err.Error())
		if a.mode != ModeEdit {
			return a, a.flushPendingRefresh()
		}
		return a, nil
	}

	switch msg.op {
	case opDelete:
		a.setMessage(MessageSuccess, "Deleted "+msg.title)
	case opRename:
		a.setMessage(MessageSuccess, "Renamed to "+msg.title)
	}

	// A successful mutation ends the edit and already re-fetched the tree.
	a.edit.Reset()
	a.mode = ModeNormal
	a.pendingRefresh = false
	a.syncRecords()
	return a, nil
}

// flushPendingRefresh starts the reload deferred while busy or editing.
func (a *App) flushPendingRefresh() tea.Cmd {
	if !a.pendingRefresh || a.busy {
		return nil
	}
	a.pendingRefresh = false
	a.busy = true
	return a.loadCmd()
}

// selected returns the record under the cursor.
func (a App) selected() (model.Record, bool) {
	visible := a.Records()
	if a.cursor < 0 || a.cursor >= len(visible) {
		return model.Record{}, false
	}
	return visible[a.cursor], true
}

// syncRecords copies the coordinator's list and keeps the cursor in range.
func (a *App) syncRecords() {
	a.records = a.coord.Records()
	if a.mode == ModeEdit && a.coord.Editing() == nil {
		a.edit.Reset()
		a.mode = ModeNormal
	}
	a.clampCursor()
}

func (a *App) clampCursor() {
	n := len(a.Records())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) setMessage(kind MessageType, text string) {
	a.messageType = kind
	a.messageText = text
}

func (a *App) clearMessage() {
	a.messageText = ""
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}
