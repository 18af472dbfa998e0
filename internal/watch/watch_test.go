package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, dir string, existing bool) *Watcher {
	t.Helper()
	w, err := New(dir, Config{
		Debounce:   50 * time.Millisecond,
		Extensions: []string{".js", "ts"},
		Existing:   existing,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func expectNoEvent(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for %s", ev.Path)
	case <-time.After(d):
	}
}

func TestNewDefaults(t *testing.T) {
	w, err := New(t.TempDir(), Config{Extensions: []string{"JS"}}, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, 500*time.Millisecond, w.cfg.Debounce)
	assert.True(t, w.excludes["node_modules"])
	assert.True(t, w.wanted("app.js"))
	assert.True(t, w.wanted("APP.JS"))
	assert.False(t, w.wanted("notes.md"))
}

func TestExcluded(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Config{}, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.False(t, w.excluded(root))
	assert.True(t, w.excluded(filepath.Join(root, "node_modules")))
	assert.True(t, w.excluded(filepath.Join(root, ".cache")))
	assert.False(t, w.excluded(filepath.Join(root, "src")))
}

func TestWatcherReportsNewFile(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte("console.log('hi')"), 0o644))

	ev := waitEvent(t, w)
	assert.Equal(t, "app.js", ev.Path)
	assert.Equal(t, path, ev.AbsPath)
	assert.True(t, ev.Created)
	assert.Len(t, ev.Hash, 64)
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello there"), 0o644))
	expectNoEvent(t, w, 300*time.Millisecond)
}

func TestWatcherSkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(dir, "index.ts")
	require.NoError(t, os.WriteFile(path, []byte("export const a = 1"), 0o644))
	first := waitEvent(t, w)
	assert.True(t, first.Created)

	require.NoError(t, os.WriteFile(path, []byte("export const a = 1"), 0o644))
	expectNoEvent(t, w, 300*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("export const a = 2"), 0o644))
	second := waitEvent(t, w)
	assert.False(t, second.Created)
	assert.NotEqual(t, first.Hash, second.Hash)
}

func TestWatcherExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "server.js"), []byte("app.listen(3000)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "dep.js"), []byte("module.exports = 1"), 0o644))

	w := newTestWatcher(t, dir, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	ev := waitEvent(t, w)
	assert.Equal(t, filepath.Join("src", "server.js"), ev.Path)
	expectNoEvent(t, w, 300*time.Millisecond)
}

func TestWatcherNewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	sub := filepath.Join(dir, "routes")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "users.js"), []byte("router.get('/')"), 0o644))

	ev := waitEvent(t, w)
	assert.Equal(t, filepath.Join("routes", "users.js"), ev.Path)
}

func TestWatcherClosesEventsOnCancel(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), false)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestStartCreatesInbox(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	w := newTestWatcher(t, dir, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
