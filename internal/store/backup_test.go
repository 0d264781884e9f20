package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// tickingClock 每次读取前进一秒，保证快照名严格递增。
func tickingClock() func() time.Time {
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newBackupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Load(Config{
		Name:     "snap",
		Path:     filepath.Join(t.TempDir(), "snap_cache.json"),
		Required: []Section{sectionMon},
		Logger:   discardLogger(),
		Now:      tickingClock(),
	})
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return s
}

func TestBackupNeverOverwritesSnapshots(t *testing.T) {
	s := newBackupStore(t)

	first, err := s.Backup()
	if err != nil {
		t.Fatalf("first backup error: %v", err)
	}
	second, err := s.Backup()
	if err != nil {
		t.Fatalf("second backup error: %v", err)
	}
	if first == second {
		t.Fatalf("snapshots must not collide: %s", first)
	}
	if got := len(s.Snapshots()); got != 2 {
		t.Fatalf("expected 2 snapshots, got %d", got)
	}
}

func TestRecoverSelectsNewestSnapshot(t *testing.T) {
	s := newBackupStore(t)

	for _, state := range []string{"t1", "t2", "t3"} {
		if err := s.Put(sectionMon, "state", json.RawMessage(`"`+state+`"`)); err != nil {
			t.Fatalf("put error: %v", err)
		}
		if _, err := s.Backup(); err != nil {
			t.Fatalf("backup error: %v", err)
		}
	}

	// 继续写入但不再做快照，随后恢复应回到 t3。
	if err := s.Put(sectionMon, "state", json.RawMessage(`"dirty"`)); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if err := s.Recover(); err != nil {
		t.Fatalf("recover error: %v", err)
	}

	value, ok := s.Get(sectionMon, "state")
	if !ok || string(value) != `"t3"` {
		t.Fatalf("expected newest snapshot content, got %s (ok=%v)", value, ok)
	}
}

func TestRecoverWithoutSnapshotsFailsCleanly(t *testing.T) {
	s := newBackupStore(t)
	if err := s.Put(sectionMon, "state", json.RawMessage(`"live"`)); err != nil {
		t.Fatalf("put error: %v", err)
	}
	before, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read live file: %v", err)
	}

	if err := s.Recover(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}

	after, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read live file: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("live file must stay untouched when no snapshot exists")
	}
	if value, ok := s.Get(sectionMon, "state"); !ok || string(value) != `"live"` {
		t.Fatalf("in-memory state must stay untouched, got %s (ok=%v)", value, ok)
	}
}

func TestRecoverCorruptSnapshotLeavesStateUntouched(t *testing.T) {
	s := newBackupStore(t)
	if err := s.Put(sectionMon, "state", json.RawMessage(`"live"`)); err != nil {
		t.Fatalf("put error: %v", err)
	}

	bad := filepath.Join(filepath.Dir(s.Path()), "snap_backup_29990101_000000.000000000.json")
	if err := os.WriteFile(bad, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("seed corrupt snapshot: %v", err)
	}
	before, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read live file: %v", err)
	}

	if err := s.Recover(); err == nil {
		t.Fatal("expected recover failure for corrupt snapshot")
	}

	after, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read live file: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("live file must stay untouched when the snapshot is corrupt")
	}
	if value, ok := s.Get(sectionMon, "state"); !ok || string(value) != `"live"` {
		t.Fatalf("in-memory state must stay untouched, got %s (ok=%v)", value, ok)
	}
}

func TestRecoverNormalizesRequiredSections(t *testing.T) {
	s := newBackupStore(t)

	snap := filepath.Join(filepath.Dir(s.Path()), "snap_backup_20240501_120500.000000000.json")
	if err := os.WriteFile(snap, []byte(`{"other":{"k":1}}`), 0o644); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	if err := s.Recover(); err != nil {
		t.Fatalf("recover error: %v", err)
	}
	if err := s.Put(sectionMon, "mew", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("required section must exist after recover: %v", err)
	}
	if _, ok := s.Get("other", "k"); !ok {
		t.Fatal("snapshot content lost during recover")
	}
}
