package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T, grace time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "work"), grace, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestAcquire_UniqueDirectories(t *testing.T) {
	m := newTestManager(t, time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ws, err := m.Acquire()
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if seen[ws.Dir] {
			t.Fatalf("Acquire returned duplicate directory %s", ws.Dir)
		}
		seen[ws.Dir] = true

		info, err := os.Stat(ws.Dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("workspace directory %s not created: %v", ws.Dir, err)
		}
	}
}

func TestRelease_Idempotent(t *testing.T) {
	m := newTestManager(t, time.Hour)

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := os.WriteFile(ws.Path("audio.mp3"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := ws.Release(); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Errorf("workspace directory still exists after Release")
	}
	if err := ws.Release(); err != nil {
		t.Errorf("second Release errored: %v", err)
	}
}

func TestSweep_RespectsGracePeriod(t *testing.T) {
	m := newTestManager(t, time.Hour)

	fresh, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	stale, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale.Dir, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	removed, err := m.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep removed %d entries, expected 1", removed)
	}
	if _, err := os.Stat(stale.Dir); !os.IsNotExist(err) {
		t.Errorf("stale workspace survived sweep")
	}
	if _, err := os.Stat(fresh.Dir); err != nil {
		t.Errorf("in-flight workspace was swept: %v", err)
	}
}

func TestSweep_Idempotent(t *testing.T) {
	m := newTestManager(t, time.Hour)

	ws, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(ws.Dir, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if _, err := m.Sweep(); err != nil {
		t.Fatalf("first Sweep failed: %v", err)
	}
	removed, err := m.Sweep()
	if err != nil {
		t.Fatalf("second Sweep failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("second Sweep removed %d entries, expected 0", removed)
	}
}

func TestSweep_EmptyRoot(t *testing.T) {
	m := newTestManager(t, time.Minute)
	removed, err := m.Sweep()
	if err != nil {
		t.Fatalf("Sweep on empty root failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Sweep on empty root removed %d entries", removed)
	}
}

func TestNewManager_RejectsNonPositiveGrace(t *testing.T) {
	if _, err := NewManager(t.TempDir(), 0, nil); err == nil {
		t.Error("expected error for zero grace period")
	}
}
