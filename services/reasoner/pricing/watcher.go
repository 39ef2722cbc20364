// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pricing

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow collapses editor write bursts (truncate + write + chmod)
// into a single reload.
const debounceWindow = 250 * time.Millisecond

// Watcher reloads a price table whenever its backing JSON file changes.
//
// # Description
//
// Watches the directory containing the config file rather than the file
// itself: many editors and orchestrators (Kubernetes ConfigMap mounts
// included) replace the file atomically via rename, which would silently
// detach a file-level watch.
type Watcher struct {
	path    string
	table   *Table
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher that reloads the table from path on change.
//
// # Inputs
//   - path: The pricing JSON file to watch.
//   - table: The live table to update in place.
//
// # Outputs
//   - *Watcher: Ready to Start.
//   - error: If the underlying fsnotify watcher cannot be created or the
//     directory cannot be registered.
func NewWatcher(path string, table *Table) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{path: path, table: table, watcher: fsw}, nil
}

// Start blocks processing filesystem events until ctx is cancelled.
// Run it in a goroutine. A reload that fails keeps the previous table.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			slog.Info("pricing watcher stopped", "path", w.path)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			fresh, err := LoadFile(w.path)
			if err != nil {
				slog.Warn("pricing reload failed, keeping previous table",
					"path", w.path, "error", err)
				continue
			}
			w.table.Replace(fresh.snapshot())
			slog.Info("pricing table reloaded", "path", w.path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("pricing watcher error", "path", w.path, "error", err)
		}
	}
}
