// Package watch re-runs a script whenever it changes on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after a run during which further
// change events are ignored.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors a script (and optionally its config file) and calls a
// run function when the script changes.
type Watcher struct {
	watcher    *fsnotify.Watcher
	script     string
	configPath string
	run        func()
	debounce   time.Duration
	stdout     io.Writer
	stderr     io.Writer

	mu         sync.Mutex
	lastChange time.Time
	runs       uint64
}

// New creates a watcher for script. A zero debounce uses DefaultDebounce.
func New(script, configPath string, debounce time.Duration, run func(), stdout, stderr io.Writer) (*Watcher, error) {
	absScript, err := filepath.Abs(script)
	if err != nil {
		return nil, fmt.Errorf("resolving script path: %w", err)
	}
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return nil, fmt.Errorf("resolving config path: %w", err)
		}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:    fsWatcher,
		script:     absScript,
		configPath: configPath,
		run:        run,
		debounce:   debounce,
		stdout:     stdout,
		stderr:     stderr,
	}, nil
}

// Start begins watching. Directories are watched rather than files so that
// editors which save by renaming a temp file are still noticed.
func (w *Watcher) Start(ctx context.Context) error {
	scriptDir := filepath.Dir(w.script)
	if err := w.watcher.Add(scriptDir); err != nil {
		return fmt.Errorf("watching %s: %w", scriptDir, err)
	}
	w.logInfo("watching script: %s", w.script)

	if w.configPath != "" {
		configDir := filepath.Dir(w.configPath)
		if configDir != scriptDir {
			if err := w.watcher.Add(configDir); err != nil {
				w.logError("failed to watch config dir %s: %v", configDir, err)
			}
		}
		w.logInfo("watching config: %s", w.configPath)
	}

	go w.eventLoop(ctx)
	return nil
}

// Run runs the script once, then again on every change, until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Close()

	w.trigger()
	<-ctx.Done()
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

// handleEvent reruns the script for writes and creates of the script
// itself. Events within the debounce period of the last run are dropped.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	switch path {
	case w.configPath:
		w.logInfo("config changed: %s (restart to apply)", path)
	case w.script:
		w.mu.Lock()
		if time.Since(w.lastChange) < w.debounce {
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		w.logInfo("script changed: %s", path)
		w.trigger()
	}
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	w.lastChange = time.Now()
	w.runs++
	w.mu.Unlock()

	w.run()
}

// Runs returns how many times the script has been run.
func (w *Watcher) Runs() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...any) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...any) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
