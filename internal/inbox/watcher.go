// Package inbox watches a directory for PDFs dropped into it.
package inbox

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultQuietPeriod = 500 * time.Millisecond

// Watcher emits the path of a PDF once it has been created or rewritten and
// then left alone for the quiet period, so half-copied files are not picked
// up.
type Watcher struct {
	watcher *fsnotify.Watcher
	quiet   time.Duration
}

func NewWatcher(quiet time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Watcher{watcher: w, quiet: quiet}, nil
}

// Watch starts monitoring dir. The returned channel is closed when ctx is
// done or the watcher is stopped.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	ready := make(chan string, 16)
	go w.loop(ctx, ready)
	return ready, nil
}

func (w *Watcher) loop(ctx context.Context, ready chan<- string) {
	defer close(ready)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(max(w.quiet/2, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsPDFPath(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				pending[event.Name] = time.Now()
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				delete(pending, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Inbox watcher error: %v", err)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.quiet {
					continue
				}
				delete(pending, path)
				select {
				case ready <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func IsPDFPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
