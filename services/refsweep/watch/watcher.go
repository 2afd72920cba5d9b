// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch triggers full rescans when project files change.
//
// The scanner core is deliberately non-incremental: every trigger
// rebuilds the whole tree from empty. This package only decides WHEN
// to rescan, debouncing filesystem churn so a burst of writes costs
// one scan.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single
// goroutine, one invocation at a time.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RescanHandler is called once per debounced change burst.
type RescanHandler func()

// Options configures the Watcher.
type Options struct {
	// DebounceWindow is how long to wait for more changes before
	// triggering. Default: 250ms
	DebounceWindow time.Duration

	// IgnorePatterns are base-name glob patterns to ignore.
	// Default: [".git", "*.swp", "*.tmp", "*~"]
	IgnorePatterns []string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 250 * time.Millisecond,
		IgnorePatterns: []string{".git", "*.swp", "*.tmp", "*~"},
	}
}

// Watcher watches a project root and fires a debounced rescan handler.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	handler  RescanHandler
	options  Options
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// New creates a watcher over the given project root.
//
// Call Start to begin watching and Stop (or cancel the context) to
// shut down.
func New(root string, handler RescanHandler, opts *Options) (*Watcher, error) {
	options := DefaultOptions()
	if opts != nil {
		options = *opts
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:    root,
		watcher: fsw,
		handler: handler,
		options: options,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the root and all subdirectories.
//
// Changes are collected until the debounce window elapses without new
// events, then the handler runs once. The event loop exits when Stop
// is called or the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
		return err
	}

	go w.loop(ctx)
	return nil
}

// Stop stops the watcher. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// loop drains fsnotify events and fires the debounced handler.
func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}
			// New directories must be added to the watch set.
			if event.Op&fsnotify.Create != 0 {
				_ = w.addRecursive(event.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.options.DebounceWindow)
				timerC = timer.C
			} else {
				// Drain a fired-but-unread timer before resetting,
				// otherwise the stale tick fires the handler twice
				// for one burst.
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.options.DebounceWindow)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case <-timerC:
			w.handler()
		}
	}
}

// addRecursive adds a directory tree to the watch set. Non-directory
// paths and walk errors are skipped.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// shouldIgnore matches a path's base name against the ignore patterns.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.options.IgnorePatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if strings.Contains(path, string(filepath.Separator)+pattern+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
