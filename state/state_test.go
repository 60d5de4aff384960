package state

import (
	"testing"
)

func TestMemoryTracker(t *testing.T) {
	tracker := NewMemoryTracker()

	if tracker.Seen("a") {
		t.Error("fresh tracker should have nothing seen")
	}
	if err := tracker.MarkSeen("a", "1"); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	if !tracker.Seen("a") {
		t.Error("key should be seen after marking")
	}
	if tracker.Seen("") {
		t.Error("empty keys are never seen")
	}
	if err := tracker.MarkSeen("", "2"); err != nil {
		t.Errorf("marking an empty key is a no-op, got error %v", err)
	}
	if got := tracker.Snapshot().Seen; got != 1 {
		t.Errorf("seen count = %d, want 1", got)
	}
}

func TestFileTrackerPersistsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewFileTracker(dir)
	if err != nil {
		t.Fatalf("NewFileTracker() error = %v", err)
	}
	if err := tracker.MarkSeen("msg-1@example.com", "1"); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	if err := tracker.MarkSeen("msg-2@example.com", "2"); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	// Marking twice must not duplicate the record.
	if err := tracker.MarkSeen("msg-1@example.com", "1"); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}
	if err := tracker.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewFileTracker(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	if !reopened.Seen("msg-1@example.com") || !reopened.Seen("msg-2@example.com") {
		t.Error("seen state should survive a restart")
	}
	if got := reopened.Snapshot().Seen; got != 2 {
		t.Errorf("seen count = %d, want 2", got)
	}
}

func TestFileTrackerEmptyDir(t *testing.T) {
	if _, err := NewFileTracker(""); err == nil {
		t.Error("expected an error for an empty state directory")
	}
}
