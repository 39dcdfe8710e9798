package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Dir is a Store backed by a directory on the local filesystem.
type Dir struct {
	root string
	mu   sync.RWMutex
}

// NewDir creates the root directory if needed and returns a Dir rooted there.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create root %s: %w", abs, err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute directory the store writes under.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) filename(key string) string {
	return filepath.Join(d.root, filepath.Clean("/"+key))
}

func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	data, err := os.ReadFile(d.filename(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (d *Dir) Put(_ context.Context, key string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := d.filename(key)
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", key, err)
	}

	// Write-then-rename keeps readers from ever seeing a torn document.
	tmp, err := os.CreateTemp(filepath.Dir(name), ".put-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp for %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp for %s: %w", key, err)
	}
	return nil
}

func (d *Dir) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.Remove(d.filename(key)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (d *Dir) Keys(_ context.Context, prefix string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entries, err := os.ReadDir(d.filename(prefix))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		keys = append(keys, strings.TrimPrefix(prefix, "/")+"/"+e.Name())
	}
	return keys, nil
}

func (d *Dir) Has(_ context.Context, key string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, err := os.Stat(d.filename(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}
