package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kaufman-bryce/kos-language-server/config"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/analysis"
)

// watcher monitors the volume root for script changes and re-validates
// affected documents.
type watcher struct {
	fsw      *fsnotify.Watcher
	cfg      *config.Config
	analyzer *analysis.Analyzer
	loader   *analysis.FileLoader

	// Track last change time to debounce rapid changes
	mu         sync.Mutex
	lastChange time.Time
}

// watchAndCheck validates the given files (or every script under the root
// when none are named), then keeps re-checking as files change until
// interrupted.
func watchAndCheck(cfg *config.Config, analyzer *analysis.Analyzer, loader *analysis.FileLoader, files []string) error {
	if len(files) == 0 {
		var err error
		files, err = collectScripts(cfg.Workspace.Root)
		if err != nil {
			return err
		}
	}
	checkFiles(cfg, analyzer, files)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w := &watcher{fsw: fsw, cfg: cfg, analyzer: analyzer, loader: loader}
	defer w.fsw.Close()

	if err := w.watchDirRecursive(cfg.Workspace.Root); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	w.eventLoop(ctx)
	return nil
}

// collectScripts gathers every .ks file under root.
func collectScripts(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".ks") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// watchDirRecursive adds a directory and its subdirectories to the watch list
func (w *watcher) watchDirRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		return nil
	})
}

// eventLoop processes file system events until ctx is cancelled.
func (w *watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".ks") {
				continue
			}

			if w.debounced() {
				continue
			}
			w.handleFileChange(ctx, event.Name)

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// debounced reports whether a change arrived inside the debounce window.
// Changes outside the window start a new one.
func (w *watcher) debounced() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if time.Since(w.lastChange) < w.cfg.Watch.Debounce {
		return true
	}
	w.lastChange = time.Now()
	return false
}

// handleFileChange re-validates a changed script and every document that
// depends on it, so stale cross-document symbols disappear promptly.
func (w *watcher) handleFileChange(ctx context.Context, path string) {
	uri := analysis.PathToURI(path)
	w.loader.Invalidate(uri)

	targets := []string{path}
	for _, dep := range w.analyzer.Dependents(uri) {
		targets = append(targets, analysis.URIToPath(dep))
	}
	checkFiles(w.cfg, w.analyzer, targets)
}
