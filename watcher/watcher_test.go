package watcher

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/modelwatch/config"
	"github.com/use-agent/modelwatch/engine"
	"github.com/use-agent/modelwatch/models"
	"github.com/use-agent/modelwatch/scanner"
	"github.com/use-agent/modelwatch/state"
)

// pageEngine serves per-URL canned HTML; unknown URLs fail.
type pageEngine struct {
	name  string
	pages map[string]string
}

func (e *pageEngine) Name() string { return e.name }

func (e *pageEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	html, ok := e.pages[req.URL]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	return &engine.FetchResult{HTML: html, EngineName: e.name}, nil
}

func fakeScanner(pages map[string]string) *scanner.Scanner {
	static := &pageEngine{name: "http", pages: pages}
	dynamic := &pageEngine{name: "browser", pages: pages}
	return scanner.New(static, dynamic, scanner.Options{Timeout: time.Second})
}

func testConfig() *config.Config {
	return config.Load()
}

func TestRun_FirstRunScenario(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	var out bytes.Buffer

	sc := fakeScanner(map[string]string{
		"https://a.test": "<html>scores for claude-4-opus</html>",
		"https://b.test": "<html>nothing relevant, not even rendered shells</html>",
	})

	err := Run(context.Background(), testConfig(), Options{
		Models:    []string{"Claude 4 Opus"},
		URLs:      []string{"https://a.test", "https://b.test"},
		StatePath: statePath,
		Out:       &out,
		Scanner:   sc,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	st, err := state.Load(statePath)
	if err != nil || st == nil {
		t.Fatalf("state not persisted: %v, %v", st, err)
	}
	want := map[string][]string{
		"https://a.test": {"Claude 4 Opus"},
		"https://b.test": {},
	}
	if !reflect.DeepEqual(st.Results, want) {
		t.Errorf("Results = %v, want %v", st.Results, want)
	}

	console := out.String()
	if !strings.Contains(console, "First run: tracking 2 URLs.") {
		t.Errorf("missing first-run notice:\n%s", console)
	}
	if !strings.Contains(console, "found: Claude 4 Opus") {
		t.Errorf("missing found line:\n%s", console)
	}
}

func TestRun_RescanRemovalScenario(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	prior := &models.PersistedState{
		LastCheck: time.Now().UTC().Add(-24 * time.Hour),
		Results:   map[string][]string{"https://a.test": {"Claude 4 Opus"}},
	}
	if err := state.Save(statePath, prior); err != nil {
		t.Fatal(err)
	}

	// The site no longer mentions the model.
	sc := fakeScanner(map[string]string{
		"https://a.test": "<html>the leaderboard moved on to other contenders entirely</html>",
	})

	var out bytes.Buffer
	err := Run(context.Background(), testConfig(), Options{
		Models:    []string{"Claude 4 Opus"},
		URLs:      []string{"https://a.test"},
		StatePath: statePath,
		Out:       &out,
		Scanner:   sc,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	st, _ := state.Load(statePath)
	if len(st.Results["https://a.test"]) != 0 {
		t.Errorf("stale positive survived: %v", st.Results["https://a.test"])
	}
	if !strings.Contains(out.String(), "- Claude 4 Opus") {
		t.Errorf("removal not reported:\n%s", out.String())
	}
}

func TestRun_FetchErrorStaysLocal(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	sc := fakeScanner(map[string]string{
		"https://ok.test": "<html>llama-3 is here</html>",
		// https://down.test absent: both engines fail for it.
	})

	var out bytes.Buffer
	err := Run(context.Background(), testConfig(), Options{
		Models:    []string{"Llama 3"},
		URLs:      []string{"https://down.test", "https://ok.test"},
		StatePath: statePath,
		Out:       &out,
		Scanner:   sc,
	})
	if err != nil {
		t.Fatalf("a per-URL fetch failure must not abort the run: %v", err)
	}

	st, _ := state.Load(statePath)
	if !reflect.DeepEqual(st.Results["https://ok.test"], []string{"Llama 3"}) {
		t.Errorf("later URL not processed: %v", st.Results)
	}
	if len(st.Results["https://down.test"]) != 0 {
		t.Errorf("failed URL should carry an empty set: %v", st.Results)
	}
	if !strings.Contains(out.String(), "[ERROR] https://down.test") {
		t.Errorf("error line missing:\n%s", out.String())
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	if err := Run(context.Background(), testConfig(), Options{URLs: []string{"https://a.test"}}); err == nil {
		t.Error("no models must be a fatal configuration error")
	}
	if err := Run(context.Background(), testConfig(), Options{Models: []string{"Llama 3"}}); err == nil {
		t.Error("no URLs must be a fatal configuration error")
	}
	if err := Run(context.Background(), testConfig(), Options{
		Models: []string{""},
		URLs:   []string{"https://a.test"},
	}); err == nil {
		t.Error("an empty model name must be rejected before any fetching")
	}
}

func TestRun_NoChangesSecondRun(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	pages := map[string]string{"https://a.test": "<html>claude-4-opus</html>"}

	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		err := Run(context.Background(), testConfig(), Options{
			Models:    []string{"Claude 4 Opus"},
			URLs:      []string{"https://a.test"},
			StatePath: statePath,
			Out:       &out,
			Scanner:   fakeScanner(pages),
		})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if i == 1 && !strings.Contains(out.String(), "No changes since last check.") {
			t.Errorf("second identical run should report no changes:\n%s", out.String())
		}
	}
}

func TestRun_WritesMarkdownReportAndHistory(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	reportPath := filepath.Join(dir, "report.md")
	historyPath := filepath.Join(dir, "history.db")

	var out bytes.Buffer
	err := Run(context.Background(), testConfig(), Options{
		Models:      []string{"Claude 4 Opus"},
		URLs:        []string{"https://a.test"},
		StatePath:   statePath,
		ReportPath:  reportPath,
		HistoryPath: historyPath,
		Out:         &out,
		Scanner:     fakeScanner(map[string]string{"https://a.test": "claude 4 opus"}),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	md, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("markdown report missing: %v", err)
	}
	if !strings.Contains(string(md), "# Model Watch Report") {
		t.Errorf("unexpected report content:\n%s", md)
	}
	if _, err := os.Stat(historyPath); err != nil {
		t.Errorf("history db missing: %v", err)
	}
}

func TestResolveURLs(t *testing.T) {
	dir := t.TempDir()
	bm := filepath.Join(dir, "bookmarks.html")
	content := `<DL><DT><H3>Leaderboards</H3><DL>
<DT><A HREF="https://arena.test/">Arena</A>
<DT><A HREF="https://bench.test/">Bench</A>
</DL></DL>`
	if err := os.WriteFile(bm, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	urls, err := ResolveURLs(bm, "Leaderboards", []string{"https://extra.test/", "https://arena.test/"})
	if err != nil {
		t.Fatalf("ResolveURLs: %v", err)
	}
	want := []string{"https://arena.test/", "https://bench.test/", "https://extra.test/"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("urls = %v, want %v", urls, want)
	}
}

func TestResolveURLs_ExplicitOnly(t *testing.T) {
	urls, err := ResolveURLs("", "Leaderboards", []string{"https://a.test"})
	if err != nil {
		t.Fatalf("ResolveURLs: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"https://a.test"}) {
		t.Errorf("urls = %v", urls)
	}
}

func TestResolveURLs_MissingFolder(t *testing.T) {
	bm := filepath.Join(t.TempDir(), "bookmarks.html")
	if err := os.WriteFile(bm, []byte("<DL></DL>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveURLs(bm, "Leaderboards", nil); err == nil {
		t.Error("missing folder must be an error")
	}
}
