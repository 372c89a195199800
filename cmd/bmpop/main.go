package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/nikbrunner/bmpop/internal/config"
	"github.com/nikbrunner/bmpop/internal/exporter"
	"github.com/nikbrunner/bmpop/internal/httpserver"
	"github.com/nikbrunner/bmpop/internal/importer"
	"github.com/nikbrunner/bmpop/internal/logger"
	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/nikbrunner/bmpop/internal/picker"
	"github.com/nikbrunner/bmpop/internal/popup"
	"github.com/nikbrunner/bmpop/internal/search"
	"github.com/nikbrunner/bmpop/internal/storage"
	"github.com/nikbrunner/bmpop/internal/tui"
	"github.com/nikbrunner/bmpop/internal/watcher"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	var err error
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "help", "--help", "-h":
			printHelp()
			return
		case "import":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: bmpop import <file.html>\n")
				os.Exit(1)
			}
			err = runImport(os.Args[2])
		case "export":
			// Export with optional path
			var outputPath string
			if len(os.Args) >= 3 {
				outputPath = os.Args[2]
			}
			err = runExport(outputPath)
		case "serve":
			err = runServe()
		default:
			// Treat as search query (join all remaining args)
			err = runQuickSearch(strings.Join(os.Args[1:], " "))
		}
	} else {
		// No args - run the popup
		err = runTUI()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `bmpop - bookmark popup

Usage:
  bmpop                 Open the bookmark popup
  bmpop <query>         Quick search → select → open
  bmpop import <file>   Import bookmarks from HTML into "Other bookmarks"
  bmpop export [path]   Export bookmarks to HTML
  bmpop serve           Serve the JSON API
  bmpop help            Show this help

Popup Keybindings:
  j/k         Move down/up
  gg/G        Jump to top/bottom
  e           Edit title (again to cancel)
  Enter       Save title
  Esc         Cancel edit / clear filter
  d           Delete bookmark
  /           Filter
  o           Open in browser
  Y           Copy URL to clipboard
  r           Reload
  ?           Help
  q           Quit

Configuration:
  ~/.config/bmpop/config.yaml (override with BMPOP_CONFIG)
  BMPOP_* environment variables and .env override the file.
`
	fmt.Print(help)
}

// env is what every subcommand needs: configuration, a logger and the store.
type env struct {
	cfg   *config.Config
	log   logger.Logger
	store storage.Backend
}

// setup loads the configuration and opens the store. toFile sends logs to
// the configured log file instead of stderr.
func setup(ctx context.Context, toFile bool) (*env, error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, err
	}

	opts := logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}
	if toFile {
		opts.OutputPath = cfg.Log.File
	}
	log, err := logger.New(opts)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	store, err := storage.Open(openCtx, cfg.StorageOptions())
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	log.Debug("store opened", logger.String("backend", cfg.Backend))

	return &env{cfg: cfg, log: log, store: store}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("close store", logger.Error(err))
	}
	_ = e.log.Sync()
}

// watch runs a watcher for the store file until ctx is done. It does
// nothing when watching is off or the backend has no file.
func (e *env) watch(ctx context.Context, onChange func()) error {
	path := e.cfg.WatchPath()
	if path == "" {
		return nil
	}
	w, err := watcher.New(path,
		watcher.WithOnChange(onChange),
		watcher.WithOnError(func(err error) {
			e.log.Warn("store file", logger.String("path", path), logger.Error(err))
		}),
		watcher.WithLogger(e.log),
	)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// runTUI runs the interactive popup.
func runTUI() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()

	coord := popup.NewCoordinator(popup.CoordinatorParams{Store: e.store, Logger: e.log})
	app := tui.NewApp(tui.AppParams{
		Coordinator: coord,
		Logger:      e.log,
		Timeout:     e.cfg.Timeout,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	go func() {
		if err := e.watch(ctx, func() { p.Send(tui.StoreChangedMsg{}) }); err != nil {
			e.log.Warn("watcher stopped", logger.Error(err))
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running app: %w", err)
	}
	return nil
}

// runQuickSearch performs a fuzzy search and opens the selected bookmark.
func runQuickSearch(query string) error {
	ctx := context.Background()
	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()

	coord := popup.NewCoordinator(popup.CoordinatorParams{Store: e.store, Logger: e.log})
	loadCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	if err := coord.Load(loadCtx); err != nil {
		return err
	}

	results := search.FuzzySearch(coord.Records(), query)
	if len(results) == 0 {
		fmt.Printf("No bookmarks found for '%s'\n", query)
		return nil
	}

	var selected model.Record
	if len(results) == 1 {
		// Single result - select it directly
		selected = results[0].Record
		fmt.Printf("Opening: %s\n", selected.Title)
	} else {
		// Multiple results - show picker
		finalModel, err := tea.NewProgram(picker.New(results, query)).Run()
		if err != nil {
			return fmt.Errorf("running picker: %w", err)
		}

		finalPicker := finalModel.(picker.Picker)
		rec, ok := finalPicker.SelectedRecord()
		if finalPicker.Cancelled() || !ok {
			return nil
		}
		selected = rec
	}

	e.log.Info("opening bookmark", logger.String("id", selected.ID), logger.String("url", selected.URL))
	return tui.OpenInBrowser(selected.URL)
}

// runImport handles the import subcommand.
func runImport(filePath string) error {
	ctx := context.Background()
	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()

	imp, ok := e.store.(storage.Importer)
	if !ok {
		return fmt.Errorf("the %s backend cannot import", e.cfg.Backend)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	nodes, err := importer.ParseHTMLBookmarks(file)
	if err != nil {
		return fmt.Errorf("parsing HTML: %w", err)
	}

	importCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	result, err := imp.Import(importCtx, "", nodes)
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}

	e.log.Info("imported",
		logger.String("file", filePath),
		logger.Int("bookmarks", result.Bookmarks),
		logger.Int("folders", result.Folders),
		logger.Int("skipped", result.Skipped))

	fmt.Printf("Imported %d bookmarks, %d folders", result.Bookmarks, result.Folders)
	if result.Skipped > 0 {
		fmt.Printf(" (%d duplicates skipped)", result.Skipped)
	}
	fmt.Println()
	return nil
}

// runExport handles the export subcommand.
func runExport(outputPath string) error {
	if outputPath == "" {
		var err error
		outputPath, err = exporter.DefaultExportPath()
		if err != nil {
			return fmt.Errorf("getting default export path: %w", err)
		}
	}

	ctx := context.Background()
	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	tree, err := e.store.FetchTree(fetchCtx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(exporter.ExportHTML(tree)), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	fmt.Printf("Exported %d bookmarks to %s\n", model.CountBookmarks(tree), outputPath)
	return nil
}

// runServe serves the JSON API until interrupted.
func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer e.close()

	coord := popup.NewCoordinator(popup.CoordinatorParams{Store: e.store, Logger: e.log})
	reload := func() {
		loadCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
		if err := coord.Load(loadCtx); err != nil {
			e.log.Warn("reload failed", logger.Error(err))
		}
	}
	reload()

	srv := httpserver.New(httpserver.Params{
		Addr:        e.cfg.Server.Listen,
		Coordinator: coord,
		Logger:      e.log,
		Timeout:     e.cfg.Timeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	g.Go(func() error {
		// The API keeps serving without live reloads.
		if err := e.watch(gctx, reload); err != nil {
			e.log.Warn("watcher stopped", logger.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
