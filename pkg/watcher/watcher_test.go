package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { callCount.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() { called.Store(true) })
	d.Cancel()
	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func startWatcher(t *testing.T, path string, opts ...Option) (*Watcher, *atomic.Int32) {
	t.Helper()
	var changes atomic.Int32
	opts = append([]Option{
		WithDebounceDuration(30 * time.Millisecond),
		WithPollInterval(20 * time.Millisecond),
		WithOnChange(func() { changes.Add(1) }),
	}, opts...)
	w, err := New(path, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	// Give the watcher time to initialize.
	time.Sleep(50 * time.Millisecond)
	return w, &changes
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "family.json")
	if err := os.WriteFile(tmpFile, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	w, changes := startWatcher(t, tmpFile)
	if err := os.WriteFile(tmpFile, []byte(`{"family":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("expected change to be detected")
	}
	select {
	case <-w.Changed():
	case <-time.After(time.Second):
		t.Error("expected a signal on the Changed channel")
	}
}

func TestWatcher_AtomicRename(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "family.json")
	if err := os.WriteFile(target, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, changes := startWatcher(t, target)

	tmp := filepath.Join(dir, ".family.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"family":{"a":{}}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("expected rename-over to be detected")
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "family.json")
	if err := os.WriteFile(tmpFile, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	w, changes := startWatcher(t, tmpFile, WithForcePoll(true))
	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}
	if err := os.WriteFile(tmpFile, []byte(`{"family":{"x":{}}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("expected polling to detect change")
	}
}

func TestWatcher_CompanionFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "family.db")
	if err := os.WriteFile(db, []byte("db"), 0644); err != nil {
		t.Fatal(err)
	}

	_, changes := startWatcher(t, db, WithCompanions("-wal"), WithForcePoll(true))
	if err := os.WriteFile(db+"-wal", []byte("wal"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("expected a write to the companion file to count as a change")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "family.json")
	if err := os.WriteFile(target, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, changes := startWatcher(t, target)
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := changes.Load(); n != 0 {
		t.Errorf("expected no change for unrelated file, got %d", n)
	}
}

func TestWatcher_FileRemovedPolling(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "family.json")
	if err := os.WriteFile(tmpFile, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	var removed atomic.Bool
	startWatcher(t, tmpFile, WithForcePoll(true), WithOnError(func(err error) {
		if errors.Is(err, ErrFileRemoved) {
			removed.Store(true)
		}
	}))
	if err := os.Remove(tmpFile); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, removed.Load) {
		t.Error("expected ErrFileRemoved")
	}
}

func TestWatcher_StartTwice(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "family.json")
	w, err := New(tmpFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestWatcher_StopsWithContext(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "family.json")
	if err := os.WriteFile(tmpFile, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	var changes atomic.Int32
	w, err := New(tmpFile,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounceDuration(20*time.Millisecond),
		WithOnChange(func() { changes.Add(1) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	cancel()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(tmpFile, []byte(`{"changed":true}`), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if n := changes.Load(); n != 0 {
		t.Errorf("expected no changes after context cancel, got %d", n)
	}
}

func TestFilesystemTypeString(t *testing.T) {
	if FSTypeNFS.String() != "nfs" || !FSTypeNFS.IsRemote() {
		t.Error("expected nfs to be remote")
	}
	if FSTypeLocal.IsRemote() {
		t.Error("expected local not remote")
	}
	if FSTypeUnknown.String() != "unknown" {
		t.Errorf("expected unknown, got %s", FSTypeUnknown)
	}
}
