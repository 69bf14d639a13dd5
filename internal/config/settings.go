package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/oleche/elcano-nav-go/internal/logging"
)

// ReadSyncKey parses the one-line `token=<sync_key>` settings file shared
// with the out-of-scope AP captive-portal writer. It is deliberately not
// JSON: the portal process appends a single line and this reader must stay
// compatible with that format. A missing file or missing token yields an
// empty key, not an error.
func ReadSyncKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open settings file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "token="); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan settings file: %w", err)
	}

	return "", nil
}

// WriteSyncKey writes the settings file in the same `token=<sync_key>`
// format, for operator tooling that sets a key outside the AP portal flow.
func WriteSyncKey(path, syncKey string) error {
	return os.WriteFile(path, []byte("token="+syncKey+"\n"), 0o644)
}

// SettingsWatcher re-reads the settings file whenever it changes, so a
// sync key written by the AP portal after boot is picked up without a
// restart. Callers obtain the latest value via Current(); Close stops the
// underlying fsnotify watch.
type SettingsWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	mu      sync.RWMutex
	syncKey string
	done    chan struct{}
}

// NewSettingsWatcher opens path, performs an initial read, and begins
// watching its parent directory for writes (fsnotify on most platforms
// reports file rewrites as a remove+create of the same path, so the
// directory must be watched rather than the file itself).
func NewSettingsWatcher(path string) (*SettingsWatcher, error) {
	key, err := ReadSyncKey(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}

	dir := stripFileName(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch settings dir: %w", err)
	}

	w := &SettingsWatcher{
		path:    path,
		watcher: watcher,
		syncKey: key,
		done:    make(chan struct{}),
	}

	go w.loop()
	return w, nil
}

func (w *SettingsWatcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			key, err := ReadSyncKey(w.path)
			if err != nil {
				logging.Warning("settings: re-read failed: %v", err)
				continue
			}
			w.mu.Lock()
			w.syncKey = key
			w.mu.Unlock()
			logging.Info("settings: sync key updated from %s", w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warning("settings: watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Current returns the most recently observed sync key.
func (w *SettingsWatcher) Current() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.syncKey
}

// Close stops the watch goroutine and releases the underlying fsnotify
// watcher.
func (w *SettingsWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func stripFileName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
