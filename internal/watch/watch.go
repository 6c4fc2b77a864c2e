// Package watch implements debounced file-system watch mode: it re-runs a
// lint pass whenever a watched Markdown file is created or written, the
// external "watch-mode file-system notification" collaborator named in
// spec.md §1.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/corvidlabs/mkdlint/internal/logging"
	"github.com/corvidlabs/mkdlint/pkg/runner"
)

// defaultDebounce coalesces bursts of events for the same path (e.g. editors
// that emit several WRITE events per save) into a single re-lint, mirroring
// the debouncer the LSP collaborator runs (spec.md §5).
const defaultDebounce = 300 * time.Millisecond

// RunFunc performs one lint pass and reports its outcome. Watch calls it
// once up front and again after every debounced batch of file events.
type RunFunc func(ctx context.Context) (*runner.Result, error)

// Watcher watches a set of root directories for Markdown file changes and
// triggers RunFunc on each debounced batch. Runs never overlap: a batch
// whose debounce window ends while a run is in flight waits for that run
// to finish, then starts its own.
type Watcher struct {
	extensions []string
	debounce   time.Duration
	run        RunFunc
	onResult   func(*runner.Result, error)

	runMu sync.Mutex // held for the whole of each run and its result callback
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the default debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExtensions restricts watched files to the given lowercase extensions
// (including the leading dot). Defaults to runner.DefaultExtensions().
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// WithResultHandler registers a callback invoked after every run, including
// the initial one.
func WithResultHandler(fn func(*runner.Result, error)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// New creates a Watcher that calls run on startup and after each debounced
// batch of filesystem events under the given roots.
func New(run RunFunc, opts ...Option) *Watcher {
	w := &Watcher{
		extensions: runner.DefaultExtensions(),
		debounce:   defaultDebounce,
		run:        run,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches roots until ctx is cancelled. It performs one run immediately,
// then re-runs after every debounced batch of relevant filesystem events.
func (w *Watcher) Run(ctx context.Context, roots []string) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	for _, root := range roots {
		if err := addRecursive(fsWatcher, root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}

	logger := logging.FromContext(ctx)
	logger.Info("watch mode started", "roots", roots)

	w.trigger(ctx)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.trigger(ctx)
			})
			mu.Unlock()

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", "err", err)
		}
	}
}

// relevant reports whether an fsnotify event is a create/write on a file
// with one of the watched extensions.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, watched := range w.extensions {
		if ext == watched {
			return true
		}
	}
	return false
}

// trigger runs one lint pass and passes its result and error, unchanged,
// to the result handler.
func (w *Watcher) trigger(ctx context.Context) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	result, err := w.run(ctx)
	if w.onResult != nil {
		w.onResult(result, err)
	}
}

// addRecursive adds root and every subdirectory to the watcher, since
// fsnotify watches are not recursive by default.
func addRecursive(fsWatcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsWatcher.Add(path)
		}
		return nil
	})
}
