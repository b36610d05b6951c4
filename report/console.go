// Package report renders run results: a per-URL block as the scan
// progresses, then a change summary comparing the prior snapshot against
// the merged one. Output ordering is deterministic (sorted URLs and names)
// so runs can be diffed against each other.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/use-agent/modelwatch/models"
)

// ConsoleWriter renders human-readable run output to a single writer.
type ConsoleWriter struct {
	out io.Writer
}

// NewConsoleWriter creates a ConsoleWriter that writes to out.
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: out}
}

// WriteURL prints one URL's scan outcome as it completes.
func (w *ConsoleWriter) WriteURL(rep models.URLReport) {
	if rep.Failed() {
		fmt.Fprintf(w.out, "[ERROR] %s → %s\n", rep.URL, rep.FetchErr)
		return
	}
	found := "none"
	if len(rep.Found) > 0 {
		found = strings.Join(rep.Found, ", ")
	}
	fmt.Fprintf(w.out, "%s\n    → found: %s\n", rep.URL, found)
}

// WriteChanges prints the change summary block.
func (w *ConsoleWriter) WriteChanges(cs models.ChangeSet) {
	fmt.Fprintln(w.out)
	if cs.FirstRun {
		fmt.Fprintf(w.out, "First run: tracking %d URLs.\n", len(cs.NewURLs))
		for _, u := range cs.NewURLs {
			fmt.Fprintf(w.out, "  + %s\n", u)
		}
		return
	}
	if cs.Empty() {
		fmt.Fprintln(w.out, "No changes since last check.")
		return
	}

	fmt.Fprintln(w.out, "Changes since last check:")
	if len(cs.NewURLs) > 0 {
		fmt.Fprintln(w.out, "  New URLs:")
		for _, u := range cs.NewURLs {
			fmt.Fprintf(w.out, "    + %s\n", u)
		}
	}
	if len(cs.RemovedURLs) > 0 {
		fmt.Fprintln(w.out, "  Removed URLs:")
		for _, u := range cs.RemovedURLs {
			fmt.Fprintf(w.out, "    - %s\n", u)
		}
	}
	if len(cs.ModelChanges) > 0 {
		fmt.Fprintln(w.out, "  Model changes:")
		for _, u := range sortedChangeURLs(cs.ModelChanges) {
			delta := cs.ModelChanges[u]
			fmt.Fprintf(w.out, "    %s\n", u)
			for _, n := range delta.Added {
				fmt.Fprintf(w.out, "      + %s\n", n)
			}
			for _, n := range delta.Removed {
				fmt.Fprintf(w.out, "      - %s\n", n)
			}
		}
	}
}

func sortedChangeURLs(m map[string]models.ModelDelta) []string {
	urls := make([]string, 0, len(m))
	for u := range m {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
