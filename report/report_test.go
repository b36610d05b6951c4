package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/modelwatch/models"
)

func TestConsoleWriter_WriteURL(t *testing.T) {
	var buf bytes.Buffer
	w := NewConsoleWriter(&buf)

	w.WriteURL(models.URLReport{URL: "https://a.test", Found: []string{"Claude 4 Opus", "Llama 3"}})
	w.WriteURL(models.URLReport{URL: "https://b.test"})
	w.WriteURL(models.URLReport{URL: "https://c.test", FetchErr: "dial tcp: refused"})

	out := buf.String()
	if !strings.Contains(out, "found: Claude 4 Opus, Llama 3") {
		t.Errorf("found line missing:\n%s", out)
	}
	if !strings.Contains(out, "found: none") {
		t.Errorf("empty found-set should say none:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] https://c.test → dial tcp: refused") {
		t.Errorf("error line missing:\n%s", out)
	}
}

func TestConsoleWriter_FirstRun(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleWriter(&buf).WriteChanges(models.ChangeSet{
		FirstRun: true,
		NewURLs:  []string{"https://a.test", "https://b.test"},
	})
	out := buf.String()
	if !strings.Contains(out, "First run: tracking 2 URLs.") {
		t.Errorf("first-run notice missing:\n%s", out)
	}
	if !strings.Contains(out, "+ https://a.test") {
		t.Errorf("new URL lines missing:\n%s", out)
	}
}

func TestConsoleWriter_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleWriter(&buf).WriteChanges(models.ChangeSet{})
	if !strings.Contains(buf.String(), "No changes since last check.") {
		t.Errorf("no-change notice missing:\n%s", buf.String())
	}
}

func TestConsoleWriter_Changes(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleWriter(&buf).WriteChanges(models.ChangeSet{
		NewURLs:     []string{"https://new.test"},
		RemovedURLs: []string{"https://old.test"},
		ModelChanges: map[string]models.ModelDelta{
			"https://a.test": {Added: []string{"Gemini"}, Removed: []string{"Claude 4 Opus"}},
		},
	})
	out := buf.String()
	for _, want := range []string{
		"New URLs:", "+ https://new.test",
		"Removed URLs:", "- https://old.test",
		"Model changes:", "https://a.test", "+ Gemini", "- Claude 4 Opus",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	st := &models.PersistedState{
		LastCheck: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Results: map[string][]string{
			"https://a.test": {"Gemini"},
		},
	}
	cs := models.ChangeSet{
		ModelChanges: map[string]models.ModelDelta{
			"https://a.test": {Added: []string{"Gemini"}},
		},
	}
	if err := NewMarkdownWriter(&buf).Write(st, cs); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "# Model Watch Report") {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "Gemini") {
		t.Errorf("missing changed model:\n%s", out)
	}
	if !strings.Contains(out, "2025-06-01T12:00:00Z") {
		t.Errorf("missing timestamp:\n%s", out)
	}
}

func TestMarkdownWriter_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	st := &models.PersistedState{LastCheck: time.Now().UTC(), Results: map[string][]string{}}
	if err := NewMarkdownWriter(&buf).Write(st, models.ChangeSet{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "No changes since last check.") {
		t.Errorf("missing no-change notice:\n%s", buf.String())
	}
}
