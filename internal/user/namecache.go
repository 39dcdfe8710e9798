package user

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// NameCache memoizes id -> display-name lookups for task enrichment. Entries
// are filled lazily from the repository and dropped when the backing documents
// change (see Watch) or a user is registered through this process.
type NameCache struct {
	repo Repository

	mu    sync.RWMutex
	names map[string]string
}

func NewNameCache(repo Repository) *NameCache {
	return &NameCache{
		repo:  repo,
		names: make(map[string]string),
	}
}

// Name resolves id to a display name. ok is false when no such user exists;
// err is reserved for store failures.
func (c *NameCache) Name(ctx context.Context, id string) (name string, ok bool, err error) {
	c.mu.RLock()
	name, hit := c.names[id]
	c.mu.RUnlock()
	if hit {
		return name, true, nil
	}

	u, err := c.repo.Get(ctx, id)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	c.mu.Lock()
	c.names[id] = u.Name
	c.mu.Unlock()
	return u.Name, true, nil
}

// Invalidate drops a single cached entry.
func (c *NameCache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.names, id)
	c.mu.Unlock()
}

// Reset drops every cached entry.
func (c *NameCache) Reset() {
	c.mu.Lock()
	c.names = make(map[string]string)
	c.mu.Unlock()
}

// Watch invalidates cache entries when user documents under dir change on
// disk, so externally edited files (or another process sharing the data
// directory) do not leave stale names behind. Blocks until ctx is done.
func (c *NameCache) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	slog.Info("watching user directory", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			id := strings.TrimSuffix(filepath.Base(event.Name), ".yaml")
			c.Invalidate(id)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("user directory watch error", "error", err)
		}
	}
}
