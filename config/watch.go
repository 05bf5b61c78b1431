package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long Watch waits for writes to a file to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the file at path whenever it changes and passes every valid result to apply.
// Invalid files are logged and skipped. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, debounce time.Duration, log *zap.Logger, apply func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors replace files by rename, which drops a watch on the file itself.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(debounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Config watcher error.", zap.Error(err))
		case <-reload:
			cfg, err := Load(path)
			if err != nil {
				log.Error("Cannot reload config.", zap.String("path", path), zap.Error(err))
				continue
			}
			log.Info("Config reloaded.", zap.String("path", path))
			apply(cfg)
		}
	}
}
