package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func newFileRepo(t *testing.T) (*FileRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "messages.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	return repo, path
}

func TestFileRepository_RoundTrip(t *testing.T) {
	repo, _ := newFileRepo(t)
	ctx := context.Background()

	want := []Message{
		{Text: "first", Timestamp: "2026-08-23T10:00:00Z"},
		{Text: "second", Timestamp: "2026-08-23T10:01:00Z"},
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Load() returned %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFileRepository_LoadMissingFile(t *testing.T) {
	repo, _ := newFileRepo(t)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want empty board for missing file", err)
	}
	if len(got) != 0 {
		t.Errorf("Load() returned %d messages, want 0", len(got))
	}
}

func TestFileRepository_LastWriteWins(t *testing.T) {
	repo, _ := newFileRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, []Message{{Text: "old", Timestamp: "t1"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, []Message{{Text: "new", Timestamp: "t2"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "new" {
		t.Errorf("Load() = %+v, want only the last written sequence", got)
	}
}

func TestFileRepository_OnDiskLayout(t *testing.T) {
	repo, path := newFileRepo(t)

	if err := repo.Save(context.Background(), []Message{{Text: "hi", Timestamp: "t"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading messages file: %v", err)
	}

	// The document is a single JSON object with a "messages" key.
	var doc map[string][]map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("messages file is not valid JSON: %v", err)
	}
	msgs, ok := doc["messages"]
	if !ok {
		t.Fatal("document missing messages key")
	}
	if len(msgs) != 1 || msgs[0]["text"] != "hi" || msgs[0]["timestamp"] != "t" {
		t.Errorf("unexpected layout: %s", data)
	}
}

func TestFileRepository_SaveEmptyWritesEmptyList(t *testing.T) {
	repo, path := newFileRepo(t)

	if err := repo.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save(nil) error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading messages file: %v", err)
	}
	var doc messagesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Messages == nil {
		t.Error("empty board should persist as [], not null")
	}
}

func TestFileRepository_NoTempLeftovers(t *testing.T) {
	repo, path := newFileRepo(t)

	if err := repo.Save(context.Background(), []Message{{Text: "x", Timestamp: "t"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(path) {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}
}
