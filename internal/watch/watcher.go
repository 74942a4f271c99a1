// Package watch re-runs a build when the manifest or shader sources change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quantmind-br/shaderbuild-go/internal/utils"
)

// DefaultDebounce is the quiet period used when Options.Debounce is not set
const DefaultDebounce = 250 * time.Millisecond

// RebuildFunc is called with the changed paths once events settle
type RebuildFunc func(ctx context.Context, changed []string) error

// Options configures a Watcher
type Options struct {
	// Paths are files or directories. Files are watched through their parent
	// directory so that editors which save by rename keep being observed.
	// Directories are watched with all their subdirectories.
	Paths []string
	// Ignore lists directories whose contents never trigger a rebuild,
	// such as a compiler output directory nested in a source directory.
	Ignore   []string
	Debounce time.Duration
	Logger   *utils.Logger
}

// Watcher batches filesystem events and triggers rebuilds
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	files    map[string]bool
	dirs     map[string]bool
	ignore   []string
	logger   *utils.Logger
}

// New creates a Watcher over opts.Paths. Every path must exist.
func New(opts Options) (*Watcher, error) {
	if len(opts.Paths) == 0 {
		return nil, errors.New("watch: no paths")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: opts.Debounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		logger:   logger.WithComponent("watch"),
	}
	for _, p := range opts.Ignore {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.ignore = append(w.ignore, abs)
	}

	for _, p := range opts.Paths {
		if err := w.add(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	if info.IsDir() {
		if err := w.addTree(abs); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	}

	w.files[abs] = true
	if err := w.addDir(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	return nil
}

// addTree watches root and every subdirectory below it, skipping hidden
// and ignored directories
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) || (p != root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		w.dirs[p] = true
		return w.addDir(p)
	})
}

func (w *Watcher) addDir(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.logger.Debug().Str("path", dir).Msg("Watching")
	return nil
}

func (w *Watcher) ignored(path string) bool {
	for _, ig := range w.ignore {
		if path == ig || strings.HasPrefix(path, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// WatchList returns the directories registered with the OS
func (w *Watcher) WatchList() []string {
	return w.fsw.WatchList()
}

// Run blocks until ctx is done, calling rebuild after each burst of
// relevant changes. Rebuild errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Change detected")
			if event.Has(fsnotify.Create) && utils.DirExists(event.Name) {
				if err := w.addTree(event.Name); err != nil {
					w.logger.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
				}
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)

			w.logger.Info().Int("changed", len(changed)).Msg("Rebuilding")
			if err := rebuild(ctx, changed); err != nil {
				w.logger.Error().Err(err).Msg("Rebuild failed")
			}
		}
	}
}

// Close stops watching. Run also closes the watcher when it returns.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if w.files[event.Name] {
		return true
	}
	if !w.dirs[filepath.Dir(event.Name)] || w.ignored(event.Name) {
		return false
	}
	name := filepath.Base(event.Name)
	return !isScratchFile(name) && !strings.EqualFold(filepath.Ext(name), ".spv")
}

// isScratchFile matches editor swap and backup files
func isScratchFile(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
