// Package workspace manages the per-request ephemeral directories that
// conversions write into, and the background sweep that keeps the temp area
// bounded when a request dies before releasing its files.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Manager hands out uniquely named working directories under a shared root.
// Directory names never collide, so concurrent requests need no locking
// against each other; only the sweep has to be careful not to remove a
// directory that is still in use, which the grace period guarantees.
type Manager struct {
	root  string
	grace time.Duration
	log   *slog.Logger
}

// Workspace is a single request's working directory. Release is safe to call
// more than once.
type Workspace struct {
	ID  string
	Dir string
}

// NewManager creates the root directory if needed. Entries older than grace
// are considered abandoned and reclaimed by Sweep; anything younger is
// assumed to belong to an in-flight request.
func NewManager(root string, grace time.Duration, log *slog.Logger) (*Manager, error) {
	if grace <= 0 {
		return nil, fmt.Errorf("workspace grace period must be positive, got %v", grace)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{root: abs, grace: grace, log: log}, nil
}

// Root returns the absolute path of the shared temp area.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a fresh uniquely named directory for one request.
func (m *Manager) Acquire() (*Workspace, error) {
	id := uuid.New().String()
	dir := filepath.Join(m.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", id, err)
	}
	return &Workspace{ID: id, Dir: dir}, nil
}

// Path returns the location of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Release deletes the workspace and everything in it. Releasing an already
// removed workspace is not an error.
func (w *Workspace) Release() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("failed to release workspace %s: %w", w.ID, err)
	}
	return nil
}

// Sweep removes workspace directories whose last modification is older than
// the grace period and returns how many were removed. Running it repeatedly
// is harmless: entries within the grace period are always left alone, and a
// directory that disappears mid-sweep is not an error.
func (m *Manager) Sweep() (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read workspace root: %w", err)
	}

	cutoff := time.Now().Add(-m.grace)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // removed concurrently
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			m.log.Warn("failed to sweep stale workspace", "path", path, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// StartSweeper runs Sweep on a fixed interval until ctx is cancelled.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := m.Sweep()
				if err != nil {
					m.log.Error("workspace sweep failed", "error", err)
				} else if removed > 0 {
					m.log.Info("swept stale workspaces", "removed", removed)
				}
			}
		}
	}()
}
