// Package watch re-triggers work when files under a project root change.
package watch

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/govern/internal/log"
)

// DefaultDebounce is how long the watcher waits for changes to settle
const DefaultDebounce = 300 * time.Millisecond

// DefaultIgnore skips VCS metadata, dependency trees and the drift log's
// lock and temp files.
var DefaultIgnore = []string{
	".git",
	".git/**",
	"**/node_modules",
	"**/node_modules/**",
	"**/*.lock",
	"**/.*.tmp-*",
}

// Config controls a Watcher
type Config struct {
	Root     string
	Ignore   []string
	Debounce time.Duration
	// OutputFiles are files the watching process writes itself. Changes to
	// them, and to temp files created beside them for atomic renames, never
	// trigger a run. Paths outside Root are skipped.
	OutputFiles []string
}

// Watcher watches every non-ignored directory below Root
type Watcher struct {
	config    Config
	outputs   []string
	fsWatcher *fsnotify.Watcher
	logger    *log.Logger
}

// New creates a watcher. Directories are added when Run starts.
func New(config Config, logger *log.Logger) (*Watcher, error) {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Ignore == nil {
		config.Ignore = DefaultIgnore
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{config: config, outputs: outputsUnder(config.Root, config.OutputFiles), fsWatcher: fsWatcher, logger: logger}, nil
}

// outputsUnder returns files as slash paths relative to root, dropping
// those outside it
func outputsUnder(root string, files []string) []string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil
	}
	var outputs []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		outputs = append(outputs, filepath.ToSlash(rel))
	}
	return outputs
}

// Run blocks until ctx is done, calling onChange with the sorted set of
// changed paths (slash-separated, relative to Root) once changes settle.
// onChange runs on the watcher goroutine, so events arriving meanwhile are
// batched into the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	defer w.fsWatcher.Close()

	if err := w.addTree(w.config.Root); err != nil {
		return err
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			rel, ignored := w.relative(event.Name)
			if ignored {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Debug("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}

			w.logger.Debug("file event", "path", rel, "op", event.Op.String())
			pending[rel] = struct{}{}
			timer.Reset(w.config.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})
			onChange(ctx, paths)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// addTree watches dir and every non-ignored directory below it
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, ignored := w.relative(path); ignored && path != dir {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return err
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// relative returns path relative to Root and whether an ignore pattern
// matches it
func (w *Watcher) relative(name string) (string, bool) {
	rel, err := filepath.Rel(w.config.Root, name)
	if err != nil {
		return name, false
	}
	rel = filepath.ToSlash(rel)
	for _, out := range w.outputs {
		if path.Dir(rel) == path.Dir(out) && strings.HasPrefix(path.Base(rel), path.Base(out)) {
			return rel, true
		}
	}
	for _, pattern := range w.config.Ignore {
		if match, _ := doublestar.Match(pattern, rel); match {
			return rel, true
		}
	}
	return rel, false
}
