// Package bookmarks extracts leaderboard URLs from a Netscape-format
// bookmarks HTML export (the format every major browser produces). The
// watch list lives in a named bookmarks folder; this package finds that
// folder's <h3> heading and collects every link in its <dl> subtree.
package bookmarks

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/modelwatch/models"
)

// anchorMatcher is compiled once; cascadia selectors are goquery matchers.
var anchorMatcher = cascadia.MustCompile("a[href]")

// Load reads the bookmarks file and returns the URLs in the named folder.
func Load(path, folder string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewWatchError(models.ErrCodeBookmarks,
			fmt.Sprintf("open bookmarks file %s", path), err)
	}
	defer f.Close()
	return Parse(f, folder)
}

// Parse extracts the href of every anchor inside the folder's list, in
// document order, de-duplicated. The folder heading is matched
// case-insensitively on trimmed text. A missing folder is a configuration
// error: without it the run cannot produce meaningful output.
func Parse(r io.Reader, folder string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, models.NewWatchError(models.ErrCodeBookmarks, "parse bookmarks HTML", err)
	}

	heading := doc.Find("h3").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(strings.TrimSpace(s.Text()), folder)
	}).First()
	if heading.Length() == 0 {
		return nil, models.NewWatchError(models.ErrCodeBookmarks,
			fmt.Sprintf("folder %q not found in bookmarks", folder), nil)
	}

	// In the Netscape format the folder's <dl> follows its <h3> inside the
	// same <dt>. Browsers emit unclosed <dt>/<p> tags, so after HTML5 error
	// recovery the <dl> may instead end up as a sibling of the <dt>; check
	// both positions.
	list := heading.NextAllFiltered("dl").First()
	if list.Length() == 0 {
		list = heading.Parent().NextAllFiltered("dl").First()
	}
	if list.Length() == 0 {
		return nil, models.NewWatchError(models.ErrCodeBookmarks,
			fmt.Sprintf("folder %q has no bookmark list", folder), nil)
	}

	seen := make(map[string]struct{})
	var urls []string
	list.FindMatcher(anchorMatcher).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		urls = append(urls, href)
	})
	return urls, nil
}
