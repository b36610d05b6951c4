package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/use-agent/modelwatch/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cs := models.ChangeSet{
		NewURLs: []string{"https://a.test"},
		ModelChanges: map[string]models.ModelDelta{
			"https://b.test": {
				Added:   []string{"Claude 4 Opus"},
				Removed: []string{"Llama 3"},
			},
		},
	}
	if err := db.RecordRun(ctx, time.Now(), 2, "Claude 4 Opus,Llama 3", cs); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	n, err := db.RunCount(ctx)
	if err != nil {
		t.Fatalf("RunCount: %v", err)
	}
	if n != 1 {
		t.Errorf("RunCount = %d, want 1", n)
	}
}

func TestChangesForModel(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := models.ChangeSet{
		ModelChanges: map[string]models.ModelDelta{
			"https://a.test": {Added: []string{"Claude 4 Opus"}},
		},
	}
	second := models.ChangeSet{
		ModelChanges: map[string]models.ModelDelta{
			"https://a.test": {Removed: []string{"Claude 4 Opus"}},
		},
	}
	if err := db.RecordRun(ctx, time.Now(), 1, "Claude 4 Opus", first); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordRun(ctx, time.Now(), 1, "Claude 4 Opus", second); err != nil {
		t.Fatal(err)
	}

	changes, err := db.ChangesForModel(ctx, "Claude 4 Opus")
	if err != nil {
		t.Fatalf("ChangesForModel: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Change != "removed" {
		t.Errorf("most recent change = %q, want removed", changes[0].Change)
	}
	if changes[0].URL != "https://a.test" {
		t.Errorf("URL = %q", changes[0].URL)
	}

	none, err := db.ChangesForModel(ctx, "Gemini")
	if err != nil {
		t.Fatalf("ChangesForModel(none): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no changes for an untracked model, got %v", none)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.RecordRun(context.Background(), time.Now(), 1, "Llama 3", models.ChangeSet{FirstRun: true}); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	n, err := db2.RunCount(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("RunCount after reopen = %d, want 1", n)
	}
}
