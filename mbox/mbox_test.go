package mbox

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mailread/state"
)

const testMbox = `From alice@example.com Mon Jan  2 15:04:05 2006
From: Alice <alice@example.com>
Subject: First
Message-Id: <first@example.com>
Date: Mon, 02 Jan 2006 15:04:05 -0700

Body one

From bob@example.com Mon Jan  2 16:04:05 2006
From: Bob <bob@example.com>
Subject: Second

Body two

From carol@example.com Mon Jan  2 17:04:05 2006
From: Carol <carol@example.com>
Subject: Third
Message-Id: <third@example.com>

Body three
`

func newTestBackend(t *testing.T) (*Backend, *state.MemoryTracker) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inbox.mbox")
	if err := os.WriteFile(path, []byte(testMbox), 0o600); err != nil {
		t.Fatalf("write mbox: %v", err)
	}

	tracker := state.NewMemoryTracker()
	backend, err := Open(Options{Path: path}, tracker, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return backend, tracker
}

func TestGetMessages(t *testing.T) {
	backend, tracker := newTestBackend(t)

	msgs, err := backend.GetMessages(context.Background(), "INBOX", []string{"2"})
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}

	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if !strings.Contains(string(msgs[0].Raw), "Subject: Second") {
		t.Errorf("wrong message fetched:\n%s", msgs[0].Raw)
	}
	if got := tracker.Snapshot().Seen; got != 1 {
		t.Errorf("seen count = %d, want 1", got)
	}
}

func TestPeekMessagesDoesNotMarkSeen(t *testing.T) {
	backend, tracker := newTestBackend(t)

	for i := 0; i < 2; i++ {
		msgs, err := backend.PeekMessages(context.Background(), "INBOX", []string{"1"})
		if err != nil {
			t.Fatalf("PeekMessages() error = %v", err)
		}
		if len(msgs) != 1 || !strings.Contains(string(msgs[0].Raw), "Subject: First") {
			t.Fatalf("wrong message fetched")
		}
	}

	if got := tracker.Snapshot().Seen; got != 0 {
		t.Errorf("peek must not mark anything seen, got %d", got)
	}
}

func TestGetMessages_RequestOrder(t *testing.T) {
	backend, _ := newTestBackend(t)

	msgs, err := backend.GetMessages(context.Background(), "INBOX", []string{"3", "1"})
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if !strings.Contains(string(msgs[0].Raw), "Subject: Third") {
		t.Errorf("first result should be message 3:\n%s", msgs[0].Raw)
	}
	if !strings.Contains(string(msgs[1].Raw), "Subject: First") {
		t.Errorf("second result should be message 1:\n%s", msgs[1].Raw)
	}
}

func TestGetMessages_ReportsAlreadySeen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.mbox")
	if err := os.WriteFile(path, []byte(testMbox), 0o600); err != nil {
		t.Fatalf("write mbox: %v", err)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	backend, err := Open(Options{Path: path}, state.NewMemoryTracker(), logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := backend.GetMessages(context.Background(), "INBOX", []string{"1"}); err != nil {
			t.Fatalf("GetMessages() error = %v", err)
		}
	}

	log := buf.String()
	if !strings.Contains(log, "alreadySeen=0") {
		t.Errorf("first read should report nothing seen yet:\n%s", log)
	}
	if !strings.Contains(log, "alreadySeen=1") {
		t.Errorf("second read should report the message as already seen:\n%s", log)
	}
}

func TestGetMessages_SeenKeyPrefersMessageID(t *testing.T) {
	backend, tracker := newTestBackend(t)

	if _, err := backend.GetMessages(context.Background(), "INBOX", []string{"1"}); err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}

	if !tracker.Seen("first@example.com") {
		t.Error("seen key should be the Message-Id")
	}
}

func TestGetMessages_ReceivedAt(t *testing.T) {
	backend, _ := newTestBackend(t)

	msgs, err := backend.GetMessages(context.Background(), "INBOX", []string{"1"})
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if msgs[0].ReceivedAt.IsZero() {
		t.Error("expected the Date header to populate ReceivedAt")
	}
}

func TestGetMessages_InvalidID(t *testing.T) {
	backend, _ := newTestBackend(t)

	if _, err := backend.GetMessages(context.Background(), "INBOX", []string{"zero"}); err == nil {
		t.Error("expected an error for a non-numeric id")
	}
	if _, err := backend.GetMessages(context.Background(), "INBOX", []string{"0"}); err == nil {
		t.Error("expected an error for id 0")
	}
}

func TestGetMessages_MissingID(t *testing.T) {
	backend, _ := newTestBackend(t)

	if _, err := backend.GetMessages(context.Background(), "INBOX", []string{"9"}); err == nil {
		t.Error("expected an error for an id past the end of the file")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	tracker := state.NewMemoryTracker()
	if _, err := Open(Options{Path: filepath.Join(t.TempDir(), "nope.mbox")}, tracker, nil); err == nil {
		t.Error("expected an error for a missing mbox file")
	}
}
