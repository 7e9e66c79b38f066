// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces editor write bursts (write + chmod + rename)
// into a single reload.
const debounceWindow = 250 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
//
// Editors rarely write in place: most write a temp file and rename it over
// the target, which is why the watch is on the parent directory rather
// than the file itself.
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	done     chan struct{}
	onReload func(*Config)
}

// Watch starts watching the config file at path. Each successful reload
// invokes onReload with the freshly validated config. Reload failures are
// logged and skipped; the previous config stays in effect.
func Watch(path string, onReload func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		fw:       fw,
		done:     make(chan struct{}),
		onReload: onReload,
	}
	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

// run is the watch loop. Events for other files in the directory are
// ignored; events for the config file arm a debounce timer whose expiry
// triggers the reload.
func (w *Watcher) run() {
	var debounce *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			cfg, err := LoadFromPath(w.path)
			if err != nil {
				log.Printf("config: reload failed: %v (keeping previous config)", err)
				continue
			}
			w.onReload(cfg)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Printf("config: watch error: %v", err)
		}
	}
}
