package web

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// WatchTemplates reloads ts whenever an .html file in dir changes.
// The watcher runs until ctx is cancelled.
func WatchTemplates(ctx context.Context, dir string, ts *TemplateSet) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch template dir %s: %w", dir, err)
	}
	log.Printf("[WEB]: Watching %s for template changes", dir)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(reloadOps) || filepath.Ext(event.Name) != ".html" {
					continue
				}
				if err := ts.Reload(); err != nil {
					log.Printf("[WEB]: Template reload after %s failed, keeping previous templates: %v", event, err)
					continue
				}
				log.Printf("[WEB]: Templates reloaded (%s)", filepath.Base(event.Name))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WEB]: Template watcher error: %v", err)
			}
		}
	}()
	return nil
}
