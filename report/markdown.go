package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/use-agent/modelwatch/models"
)

// MarkdownWriter renders the change summary as a Markdown document, suitable
// for dropping into a notes file or pasting into an issue.
type MarkdownWriter struct {
	out io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that writes to out.
func NewMarkdownWriter(out io.Writer) *MarkdownWriter {
	return &MarkdownWriter{out: out}
}

// Write renders the report for one run. st is the merged snapshot the run
// produced; cs is the change set against the prior snapshot.
func (w *MarkdownWriter) Write(st *models.PersistedState, cs models.ChangeSet) error {
	md := markdown.NewMarkdown(w.out)

	md.H1("Model Watch Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Checked", st.LastCheck.Format(time.RFC3339)},
			{"Tracked URLs", strconv.Itoa(len(st.Results))},
			{"First run", strconv.FormatBool(cs.FirstRun)},
		},
	})
	md.PlainText("")

	switch {
	case cs.FirstRun:
		md.H2("Now tracking")
		md.BulletList(cs.NewURLs...)
	case cs.Empty():
		md.H2("Changes")
		md.PlainText("No changes since last check.")
	default:
		w.writeChanges(md, cs)
	}

	return md.Build()
}

func (w *MarkdownWriter) writeChanges(md *markdown.Markdown, cs models.ChangeSet) {
	if len(cs.NewURLs) > 0 {
		md.H2("New URLs")
		md.BulletList(cs.NewURLs...)
		md.PlainText("")
	}
	if len(cs.RemovedURLs) > 0 {
		md.H2("Removed URLs")
		md.BulletList(cs.RemovedURLs...)
		md.PlainText("")
	}
	if len(cs.ModelChanges) > 0 {
		md.H2("Model changes")
		rows := make([][]string, 0, len(cs.ModelChanges))
		for _, u := range sortedChangeURLs(cs.ModelChanges) {
			delta := cs.ModelChanges[u]
			for _, n := range delta.Added {
				rows = append(rows, []string{u, "added", n})
			}
			for _, n := range delta.Removed {
				rows = append(rows, []string{u, "removed", n})
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Change", "Model"},
			Rows:   rows,
		})
	}
}
