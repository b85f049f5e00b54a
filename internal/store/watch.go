package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchFS mirrors external writes to the store directory into the event
// stream, so a second process mutating the same store still triggers
// reprojection here. In-process mutations already emit directly; the
// throttle keeps the double signal (broker + filesystem) from producing
// redundant reactive passes.
func (s *DiskStore) WatchFS(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := addRecursive(watcher, s.base); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		throttle := time.NewTimer(0)
		if !throttle.Stop() {
			<-throttle.C
		}
		pending := make(map[EventType]struct{})

		for {
			select {
			case <-ctx.Done():
				return
			case <-throttle.C:
				for t := range pending {
					s.broker.emit(Event{Type: t})
					delete(pending, t)
				}
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = addRecursive(watcher, event.Name)
						continue
					}
				}

				t, relevant := s.classify(event)
				if !relevant {
					continue
				}
				if len(pending) == 0 {
					throttle.Reset(100 * time.Millisecond)
				}
				pending[t] = struct{}{}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

func (s *DiskStore) classify(event fsnotify.Event) (EventType, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return 0, false
	}

	rel, err := filepath.Rel(s.base, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return 0, false
	}

	switch {
	case strings.HasPrefix(rel, notesBucket+string(os.PathSeparator)):
		return EventNotesChanged, true
	case strings.HasPrefix(rel, booksBucket+string(os.PathSeparator)):
		return EventBooksChanged, true
	case strings.HasPrefix(rel, stateBucket+string(os.PathSeparator)):
		return EventActiveChanged, true
	}
	return 0, false
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
