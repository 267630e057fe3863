package services

import (
	"context"
	"fmt"
	"path/filepath"

	"country-color-map/backend/system"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever its file is written or replaced by someone
// else, for example the seed importer running next to the server. It blocks
// until ctx is done. The directory is watched, not the file, because atomic
// renames replace the inode; a rename onto the file arrives as Create.
func (s *ColorStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				system.Warn("Ignoring change to %s: %v", s.path, err)
				continue
			}
			system.Info("Reloaded country colors from %s", s.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			system.Warn("File watcher error: %v", err)
		}
	}
}
