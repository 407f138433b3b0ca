package rules

import (
	"log"
	"os"
	"time"
)

// Watcher polls the loader's config file for modification-time changes and
// invalidates the loader's cache when the file is rewritten. Polling keeps
// it dependency-free and good enough for a config that changes rarely.
type Watcher struct {
	loader   *Loader
	interval time.Duration
	stopCh   chan struct{}
	last     time.Time
}

// NewWatcher creates a watcher over the loader's nodes file.
func NewWatcher(l *Loader, interval time.Duration) *Watcher {
	return &Watcher{loader: l, interval: interval, stopCh: make(chan struct{})}
}

// Start begins polling in a goroutine.
func (w *Watcher) Start() {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		w.scan(true)
		for {
			select {
			case <-ticker.C:
				w.scan(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher.
func (w *Watcher) Stop() { close(w.stopCh) }

func (w *Watcher) scan(prime bool) {
	fi, err := os.Stat(w.loader.NodesPath())
	if err != nil {
		return
	}
	mt := fi.ModTime()
	if w.last.IsZero() {
		w.last = mt
		return
	}
	if mt.After(w.last) {
		w.last = mt
		if !prime {
			log.Printf("rules: %s changed, reloading", w.loader.NodesPath())
			w.loader.Invalidate()
		}
	}
}
