// Package watcher drives one complete run: compile matchers, resolve the
// URL list, scan sequentially, reconcile against the prior snapshot, report
// the delta, and persist the merged state.
package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/modelwatch/bookmarks"
	"github.com/use-agent/modelwatch/config"
	"github.com/use-agent/modelwatch/engine"
	"github.com/use-agent/modelwatch/history"
	"github.com/use-agent/modelwatch/matcher"
	"github.com/use-agent/modelwatch/models"
	"github.com/use-agent/modelwatch/report"
	"github.com/use-agent/modelwatch/scanner"
	"github.com/use-agent/modelwatch/snapshot"
	"github.com/use-agent/modelwatch/state"
	"github.com/use-agent/modelwatch/track"
)

// Options are the per-run inputs, already merged from flags, environment,
// and the optional watchlist file.
type Options struct {
	// Models are the names to refresh this run. Required.
	Models []string

	// URLs are the pages to check. Required (resolved from bookmarks and/or
	// explicit flags before Run is called, see ResolveURLs).
	URLs []string

	// ForceDynamic skips the static fetch stage for every URL.
	ForceDynamic bool

	// StatePath overrides the snapshot location; empty means the default.
	StatePath string

	// ReportPath, when set, additionally writes a Markdown change report.
	ReportPath string

	// SnapshotDir, when set, archives pages where a model newly appeared.
	SnapshotDir string

	// HistoryPath, when set, appends the run to the SQLite run log.
	HistoryPath string

	// Out receives console output; defaults to os.Stdout.
	Out io.Writer

	// Scanner overrides the default engine stack when non-nil.
	Scanner *scanner.Scanner
}

// ResolveURLs builds the URL list from the bookmarks folder and explicit
// URLs, preserving order and dropping duplicates.
func ResolveURLs(bookmarksPath, folder string, explicit []string) ([]string, error) {
	var urls []string
	if bookmarksPath != "" {
		fromFile, err := bookmarks.Load(bookmarksPath, folder)
		if err != nil {
			return nil, err
		}
		urls = fromFile
	}

	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		seen[u] = struct{}{}
	}
	for _, u := range explicit {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls, nil
}

// Run performs one scan-reconcile-report cycle. It returns an error only
// for configuration problems; fetch and persistence failures are reported
// and logged without aborting the run.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if len(opts.Models) == 0 {
		return models.NewWatchError(models.ErrCodeInvalidInput, "no model names supplied", nil)
	}
	if len(opts.URLs) == 0 {
		return models.NewWatchError(models.ErrCodeInvalidInput, "no URLs to check", nil)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	matchers, err := matcher.CompileAll(opts.Models)
	if err != nil {
		return models.NewWatchError(models.ErrCodeInvalidInput, "bad model name", err)
	}

	statePath := opts.StatePath
	if statePath == "" {
		statePath = state.DefaultPath()
	}
	prior, err := state.Load(statePath)
	if err != nil {
		return err
	}
	slog.Info("run starting",
		"models", len(opts.Models),
		"urls", len(opts.URLs),
		"state", state.Describe(prior),
	)

	sc := opts.Scanner
	if sc == nil {
		sc = scanner.New(
			engine.NewHTTPEngine(),
			engine.NewBrowserEngine(engine.BrowserOptions{
				Headless:  cfg.Browser.Headless,
				NoSandbox: cfg.Browser.NoSandbox,
				Bin:       cfg.Browser.Bin,
				Proxy:     cfg.Browser.Proxy,
			}),
			scanner.Options{
				Timeout: cfg.Fetch.Timeout,
				Stealth: cfg.Fetch.Stealth,
				Limiter: rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSecond), 1),
			},
		)
	}

	// Sequential scan: one URL at a time, errors stay local to their URL.
	console := report.NewConsoleWriter(out)
	current := make(models.ScanResult, len(opts.URLs))
	reports := make(map[string]models.URLReport, len(opts.URLs))
	for _, url := range opts.URLs {
		rep := sc.CheckURL(ctx, url, matchers, opts.ForceDynamic)
		console.WriteURL(rep)
		reports[url] = rep
		if rep.Failed() {
			current[url] = []string{}
			continue
		}
		current[url] = rep.Found
	}

	var priorResults map[string][]string
	if prior != nil {
		priorResults = prior.Results
	}
	merged := track.Merge(priorResults, current, opts.Models)
	cs := track.Diff(priorResults, merged)
	console.WriteChanges(cs)

	st := state.New(merged)

	if opts.SnapshotDir != "" {
		writeSnapshots(opts.SnapshotDir, cs, reports, st.LastCheck)
	}
	if opts.ReportPath != "" {
		writeMarkdownReport(opts.ReportPath, st, cs)
	}
	if opts.HistoryPath != "" {
		recordHistory(ctx, opts.HistoryPath, st.LastCheck, len(opts.URLs), opts.Models, cs)
	}

	if err := state.Save(statePath, st); err != nil {
		// The console report above already carries this run's results; losing
		// persistence is a warning, not a failure.
		slog.Warn("failed to persist state", "path", statePath, "error", err)
	}
	return nil
}

// writeSnapshots archives every page where a model newly appeared this run.
func writeSnapshots(dir string, cs models.ChangeSet, reports map[string]models.URLReport, when time.Time) {
	arch, err := snapshot.NewArchiver(dir)
	if err != nil {
		slog.Warn("snapshot archiver unavailable", "dir", dir, "error", err)
		return
	}

	for _, url := range snapshotTargets(cs, reports) {
		rep := reports[url]
		path, err := arch.Capture(url, rep.HTML, when)
		if err != nil {
			slog.Warn("snapshot failed", "url", url, "error", err)
			continue
		}
		slog.Info("page archived", "url", url, "snapshot", path)
	}
}

// snapshotTargets picks the URLs worth archiving: pages whose delta gained a
// model, and on a first run every page with at least one hit.
func snapshotTargets(cs models.ChangeSet, reports map[string]models.URLReport) []string {
	var targets []string
	if cs.FirstRun {
		for _, url := range cs.NewURLs {
			if rep, ok := reports[url]; ok && len(rep.Found) > 0 {
				targets = append(targets, url)
			}
		}
		return targets
	}
	for _, url := range cs.NewURLs {
		if rep, ok := reports[url]; ok && len(rep.Found) > 0 {
			targets = append(targets, url)
		}
	}
	for url, delta := range cs.ModelChanges {
		if len(delta.Added) == 0 {
			continue
		}
		if rep, ok := reports[url]; ok && !rep.Failed() {
			targets = append(targets, url)
		}
	}
	return targets
}

func writeMarkdownReport(path string, st *models.PersistedState, cs models.ChangeSet) {
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("cannot create report file", "path", path, "error", err)
		return
	}
	defer f.Close()
	if err := report.NewMarkdownWriter(f).Write(st, cs); err != nil {
		slog.Warn("markdown report failed", "path", path, "error", err)
	}
}

func recordHistory(ctx context.Context, path string, checkedAt time.Time, urlCount int, requested []string, cs models.ChangeSet) {
	db, err := history.Open(path)
	if err != nil {
		slog.Warn("history log unavailable", "path", path, "error", err)
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Warn("history close failed", "error", err)
		}
	}()
	if err := db.RecordRun(ctx, checkedAt, urlCount, strings.Join(requested, ","), cs); err != nil {
		slog.Warn("history append failed", "error", err)
	}
}

// CheckOnce scans a single URL with the given models and returns the report
// without touching persisted state. Used by the MCP server.
func CheckOnce(ctx context.Context, cfg *config.Config, url string, modelNames []string, forceDynamic bool) (models.URLReport, error) {
	if len(modelNames) == 0 {
		return models.URLReport{}, models.NewWatchError(models.ErrCodeInvalidInput, "no model names supplied", nil)
	}
	matchers, err := matcher.CompileAll(modelNames)
	if err != nil {
		return models.URLReport{}, models.NewWatchError(models.ErrCodeInvalidInput, "bad model name", err)
	}

	sc := scanner.New(
		engine.NewHTTPEngine(),
		engine.NewBrowserEngine(engine.BrowserOptions{
			Headless:  cfg.Browser.Headless,
			NoSandbox: cfg.Browser.NoSandbox,
			Bin:       cfg.Browser.Bin,
			Proxy:     cfg.Browser.Proxy,
		}),
		scanner.Options{Timeout: cfg.Fetch.Timeout, Stealth: cfg.Fetch.Stealth},
	)
	return sc.CheckURL(ctx, url, matchers, forceDynamic), nil
}

// InitLogger configures slog from the log section of the config.
func InitLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
