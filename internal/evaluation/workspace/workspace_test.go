package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		RootDir:      t.TempDir(),
		SourceFile:   "solution.cpp",
		ArtifactFile: "solution",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestAcquireCreatesIsolatedTree(t *testing.T) {
	m := newTestManager(t)
	ws, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ws.ID() == "" {
		t.Fatal("workspace id is empty")
	}
	info, err := os.Stat(ws.Root())
	if err != nil || !info.IsDir() {
		t.Fatalf("workspace root missing: %v", err)
	}
	if _, err := os.Stat(ws.RunDir()); err != nil {
		t.Fatalf("run dir missing: %v", err)
	}
	if filepath.Dir(ws.SourcePath()) != ws.Root() {
		t.Fatalf("source path %s not inside workspace %s", ws.SourcePath(), ws.Root())
	}
	if filepath.Dir(ws.TestInputPath(1)) != ws.RunDir() {
		t.Fatalf("test input path %s not inside run dir", ws.TestInputPath(1))
	}
}

func TestAcquireUniquePaths(t *testing.T) {
	m := newTestManager(t)

	const n = 10
	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := m.Acquire(context.Background())
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			if seen[ws.Root()] {
				t.Errorf("duplicate workspace path %s", ws.Root())
			}
			seen[ws.Root()] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	if len(seen) != n {
		t.Fatalf("expected %d distinct workspaces, got %d", n, len(seen))
	}
}

func TestReleaseRemovesEverything(t *testing.T) {
	m := newTestManager(t)
	ws, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := os.WriteFile(ws.SourcePath(), []byte("int main() {}"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := os.WriteFile(ws.TestInputPath(1), []byte("1 2"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := m.Release(ws); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(ws.Root()); !os.IsNotExist(err) {
		t.Fatalf("workspace still exists after release")
	}
}

func TestReleaseNilIsNoop(t *testing.T) {
	m := newTestManager(t)
	if err := m.Release(nil); err != nil {
		t.Fatalf("release nil: %v", err)
	}
}

func TestAcquireCanceledContext(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Acquire(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestNewManagerRequiresFileNames(t *testing.T) {
	if _, err := NewManager(Config{RootDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for missing file names")
	}
}
