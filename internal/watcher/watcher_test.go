package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// recorder collects onChange callbacks.
type recorder struct {
	mu   sync.Mutex
	dirs []string
}

func (r *recorder) onChange(dir string) {
	r.mu.Lock()
	r.dirs = append(r.dirs, dir)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dirs...)
}

func (r *recorder) waitFor(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(20 * time.Millisecond)
	}
	got := r.snapshot()
	t.Fatalf("expected at least %d callbacks, got %d: %v", n, len(got), got)
	return nil
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher(nil, []string{".go"}, true, rec.onChange)
	startWatcher(t, w)

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}
	// adding twice is a no-op
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 1 {
		t.Errorf("after second add: %v", w.Directories())
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
	if len(w.WatchedPaths()) != 0 {
		t.Errorf("watched paths after remove: %v", w.WatchedPaths())
	}
}

func TestWatcher_AddDirectoryMissing(t *testing.T) {
	w := NewWatcher(nil, nil, false, nil)
	startWatcher(t, w)
	if err := w.AddDirectory(filepath.Join(t.TempDir(), "nope"), false); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWatcher_StartMissingRoot(t *testing.T) {
	w := NewWatcher([]string{filepath.Join(t.TempDir(), "nope")}, nil, false, nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing root")
	}
}

func TestWatcher_DebouncesPerDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".go"}, false, rec.onChange, WithDebounce(150*time.Millisecond))
	startWatcher(t, w)

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, "a.go"), "package a\n")
		time.Sleep(10 * time.Millisecond)
	}
	rec.waitFor(t, 1)
	time.Sleep(400 * time.Millisecond)
	got := rec.snapshot()
	if len(got) != 1 {
		t.Errorf("expected one debounced callback, got %v", got)
	}
	if filepath.Clean(got[0]) != filepath.Clean(dir) {
		t.Errorf("callback dir = %q, want %q", got[0], dir)
	}
}

func TestWatcher_IgnoresOutputAndOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".go"}, false, rec.onChange,
		WithDebounce(50*time.Millisecond),
		WithIgnoreSuffix("_classnames.go"),
		WithLogger(zap.NewNop()),
	)
	startWatcher(t, w)

	writeFile(t, filepath.Join(dir, "ui_classnames.go"), "package ui\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "hello")
	time.Sleep(300 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("expected no callbacks, got %v", got)
	}

	writeFile(t, filepath.Join(dir, "ui.go"), "package ui\n")
	rec.waitFor(t, 1)
}

func TestWatcher_RecursiveNewDirectory(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".go"}, true, rec.onChange, WithDebounce(50*time.Millisecond))
	startWatcher(t, w)

	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// give the watcher time to register the new directory
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(sub, "b.go"), "package sub\n")

	got := rec.waitFor(t, 1)
	found := false
	for _, d := range got {
		if filepath.Clean(d) == filepath.Clean(sub) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected callback for %s, got %v", sub, got)
	}
}

func TestWatcher_SyncExisting(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b", ".hidden", "testdata"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	rec := &recorder{}
	w := NewWatcher([]string{dir}, []string{".go"}, true, rec.onChange)
	startWatcher(t, w)

	w.SyncExisting()
	got := rec.snapshot()
	sort.Strings(got)
	want := []string{dir, filepath.Join(dir, "a"), filepath.Join(dir, "b")}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("SyncExisting callbacks = %v, want %v", got, want)
	}
	for i := range want {
		if filepath.Clean(got[i]) != filepath.Clean(want[i]) {
			t.Errorf("callback[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, false, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
	if err := w.AddDirectory(t.TempDir(), false); err != nil {
		t.Errorf("AddDirectory after Stop: %v", err)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.go", []string{".go"}, true},
		{"/a/b.GO", []string{"go"}, true},
		{"/a/b.templ", []string{".go"}, false},
		{"/a/b.templ", []string{".go", ".templ"}, true},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.go", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestSkipDir(t *testing.T) {
	for name, want := range map[string]bool{
		"testdata": true,
		"vendor":   true,
		".git":     true,
		"_build":   true,
		"ui":       false,
	} {
		if got := skipDir(name); got != want {
			t.Errorf("skipDir(%q) = %v, want %v", name, got, want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
