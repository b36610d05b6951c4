// Package scanner applies a matcher set to pages fetched through the
// two-tier engine strategy: try the cheap HTTP engine first, escalate to the
// browser engine when the static fetch fails or finds nothing.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/modelwatch/engine"
	"github.com/use-agent/modelwatch/matcher"
	"github.com/use-agent/modelwatch/models"
)

// Options tunes one Scanner.
type Options struct {
	// Timeout bounds each individual fetch attempt, not the whole run.
	Timeout time.Duration

	// Stealth enables stealth JS injection on browser fetches.
	Stealth bool

	// Limiter paces fetch attempts. Nil means no pacing.
	Limiter *rate.Limiter
}

// Scanner checks URLs for model-name mentions. It is a plain value holding
// its two engines and options; matcher sets are passed in per call, so the
// scanner carries no hidden pattern state.
type Scanner struct {
	static  engine.Engine
	dynamic engine.Engine
	opts    Options
}

// New creates a Scanner over the given static and dynamic engines.
func New(static, dynamic engine.Engine, opts Options) *Scanner {
	return &Scanner{static: static, dynamic: dynamic, opts: opts}
}

// staticOutcome is the result of the static stage, made explicit so the
// escalation decision is a pure branch rather than implicit control flow.
type staticOutcome int

const (
	// staticHit: the static fetch succeeded and matched at least one model.
	staticHit staticOutcome = iota
	// staticMiss: the static fetch succeeded but matched nothing; the page
	// may be a JS-rendered shell, so the browser stage should be tried.
	staticMiss
	// staticError: the static fetch itself failed.
	staticError
)

// CheckURL fetches one URL and returns which of the given models it
// mentions. Fetch failures are carried in the report rather than returned,
// so the caller can continue with the remaining URLs.
//
// Selection policy: unless forceDynamic is set, the static engine runs
// first; on staticMiss or staticError the browser engine is tried once.
// forceDynamic skips the static stage entirely.
func (s *Scanner) CheckURL(ctx context.Context, url string, matchers []matcher.Matcher, forceDynamic bool) models.URLReport {
	report := models.URLReport{URL: url}

	if !forceDynamic {
		res, found, outcome, err := s.staticStage(ctx, url, matchers)
		switch outcome {
		case staticHit:
			report.Found = found
			report.FetchMethod = s.static.Name()
			report.HTML = res.HTML
			return report
		case staticMiss:
			slog.Debug("static fetch found nothing, escalating to browser", "url", url)
		case staticError:
			slog.Debug("static fetch failed, escalating to browser", "url", url, "error", err)
		}
	}

	res, err := s.fetch(ctx, s.dynamic, url)
	if err != nil {
		report.FetchErr = err.Error()
		return report
	}

	report.Found = match(res.HTML, matchers)
	report.FetchMethod = s.dynamic.Name()
	report.HTML = res.HTML
	return report
}

// staticStage runs the static engine and classifies its outcome.
func (s *Scanner) staticStage(ctx context.Context, url string, matchers []matcher.Matcher) (*engine.FetchResult, []string, staticOutcome, error) {
	res, err := s.fetch(ctx, s.static, url)
	if err != nil {
		return nil, nil, staticError, err
	}
	found := match(res.HTML, matchers)
	if len(found) == 0 {
		return res, nil, staticMiss, nil
	}
	return res, found, staticHit, nil
}

// fetch runs one engine attempt, pacing through the limiter first.
func (s *Scanner) fetch(ctx context.Context, e engine.Engine, url string) (*engine.FetchResult, error) {
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return e.Fetch(ctx, &engine.FetchRequest{
		URL:     url,
		Timeout: s.opts.Timeout,
		Stealth: s.opts.Stealth,
	})
}

// match applies every matcher independently against the text. A page may
// mention several models; found names keep matcher order and are unique by
// construction (one entry per matcher).
func match(text string, matchers []matcher.Matcher) []string {
	found := make([]string, 0, len(matchers))
	for _, m := range matchers {
		if m.Match(text) {
			found = append(found, m.Name())
		}
	}
	return found
}
