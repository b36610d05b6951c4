// Package snapshot archives the pages where a model was newly spotted:
// readability extraction to isolate the leaderboard content, Markdown
// conversion, one file per capture. Snapshots are evidence for later
// review; a rescan that no longer finds the model does not touch them.
package snapshot

import (
	"fmt"
	"log/slog"
	nurl "net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and fall back to raw HTML.
const minContentLength = 50

// Archiver writes page snapshots into a directory.
type Archiver struct {
	dir  string
	conv *converter.Converter
}

// NewArchiver creates an Archiver rooted at dir, creating it if needed.
func NewArchiver(dir string) (*Archiver, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	return &Archiver{dir: dir, conv: newConverter()}, nil
}

// newConverter builds a reusable converter: the base plugin strips script,
// style, and head noise; commonmark renders standard Markdown; the table
// plugin preserves leaderboard tables, which carry the actual rankings.
func newConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Capture archives one page and returns the written file path. The raw HTML
// goes through readability first; when extraction fails or yields almost
// nothing, the raw HTML is converted as-is so a snapshot always exists.
func (a *Archiver) Capture(pageURL, rawHTML string, when time.Time) (string, error) {
	content := extract(pageURL, rawHTML)

	md, err := a.conv.ConvertString(content, converter.WithDomain(domainOf(pageURL)))
	if err != nil {
		return "", fmt.Errorf("snapshot: convert %s: %w", pageURL, err)
	}

	name := fmt.Sprintf("%s-%s.md", hostSlug(pageURL), when.UTC().Format("20060102T150405Z"))
	path := filepath.Join(a.dir, name)

	header := fmt.Sprintf("<!-- source: %s captured: %s -->\n\n", pageURL, when.UTC().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(header+md), 0o600); err != nil {
		return "", fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return path, nil
}

// extract runs the Mozilla Readability algorithm, falling back to the raw
// HTML whenever the result is unusable.
func extract(pageURL, rawHTML string) string {
	parsed, err := nurl.Parse(pageURL)
	if err != nil {
		slog.Warn("snapshot: invalid source URL, using raw HTML", "url", pageURL, "error", err)
		return rawHTML
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		slog.Warn("snapshot: readability failed, using raw HTML", "url", pageURL, "error", err)
		return rawHTML
	}
	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Warn("snapshot: extracted content too short, using raw HTML",
			"url", pageURL, "length", len(article.TextContent))
		return rawHTML
	}
	return article.Content
}

func domainOf(pageURL string) string {
	u, err := nurl.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// hostSlug turns a URL's host and path into a filesystem-safe prefix.
func hostSlug(pageURL string) string {
	u, err := nurl.Parse(pageURL)
	if err != nil {
		return "page"
	}
	s := u.Host + u.Path
	s = strings.Trim(s, "/")
	replacer := strings.NewReplacer("/", "-", ":", "-", "?", "-", "&", "-", "=", "-")
	s = replacer.Replace(s)
	if s == "" {
		return "page"
	}
	const maxSlug = 80
	if len(s) > maxSlug {
		s = s[:maxSlug]
	}
	return s
}
