package bookmarks

import (
	"reflect"
	"strings"
	"testing"
)

// export mimics the unclosed-tag markup browsers actually emit.
const export = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3>Toolbar</H3>
    <DL><p>
        <DT><A HREF="https://news.test/">News</A>
    </DL><p>
    <DT><H3>Leaderboards</H3>
    <DL><p>
        <DT><A HREF="https://arena.test/leaderboard">Arena</A>
        <DT><A HREF="https://bench.test/llm">Bench</A>
        <DT><A HREF="https://arena.test/leaderboard">Arena again</A>
    </DL><p>
</DL><p>
`

func TestParse_FolderURLs(t *testing.T) {
	urls, err := Parse(strings.NewReader(export), "Leaderboards")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"https://arena.test/leaderboard", "https://bench.test/llm"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("urls = %v, want %v (ordered, de-duplicated)", urls, want)
	}
}

func TestParse_IgnoresOtherFolders(t *testing.T) {
	urls, err := Parse(strings.NewReader(export), "Leaderboards")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, u := range urls {
		if u == "https://news.test/" {
			t.Error("URL from a sibling folder leaked into the result")
		}
	}
}

func TestParse_FolderNameCaseInsensitive(t *testing.T) {
	urls, err := Parse(strings.NewReader(export), "leaderboards")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("got %d urls, want 2", len(urls))
	}
}

func TestParse_MissingFolder(t *testing.T) {
	if _, err := Parse(strings.NewReader(export), "Benchmarks"); err == nil {
		t.Error("missing folder must be a configuration error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/bookmarks.html", "Leaderboards"); err == nil {
		t.Error("missing bookmarks file must be an error")
	}
}
