package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/modelwatch/models"
	"github.com/ysmood/gson"
)

// BrowserOptions controls the Chromium instance launched per fetch.
type BrowserOptions struct {
	// Headless controls whether the browser runs headless.
	Headless bool

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool

	// Bin overrides the Chromium binary path.
	Bin string

	// Proxy is an optional proxy URL for all browser traffic.
	Proxy string
}

// BrowserEngine is the dynamic tier: it renders JavaScript-heavy pages in a
// headless Chromium. Every Fetch launches its own browser and tears it down
// before returning, so no browser resource outlives a single call.
type BrowserEngine struct {
	opts BrowserOptions
}

// NewBrowserEngine creates a BrowserEngine. Nothing is launched until Fetch.
func NewBrowserEngine(opts BrowserOptions) *BrowserEngine {
	return &BrowserEngine{opts: opts}
}

func (e *BrowserEngine) Name() string { return "browser" }

// Fetch renders the URL in an isolated browser and returns the rendered DOM.
//
// Lifecycle:
//
//  1. Timeout guard      – hard deadline on the entire operation
//  2. Launch             – fresh Chromium with automation masked
//  3. DEFER: teardown    – close browser, kill process, remove temp profile
//  4. Page + stealth     – stealth JS must be injected before navigation
//  5. Idle listener      – registered before Navigate so no request is missed
//  6. Navigate + wait    – network idle (300 ms threshold)
//  7. Extract            – rendered HTML, title, final URL
//
// The teardown defers run on every exit path, including navigation errors
// and context expiry, so the sequential scan loop never leaks a Chrome
// process.
func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	// ── 1. Timeout guard ────────────────────────────────────────────
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	// ── 2. Launch a fresh browser ───────────────────────────────────
	l := launcher.New().
		Headless(e.opts.Headless).
		NoSandbox(e.opts.NoSandbox)

	if e.opts.Bin != "" {
		l = l.Bin(e.opts.Bin)
	}
	if e.opts.Proxy != "" {
		l = l.Proxy(e.opts.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewWatchError(models.ErrCodeBrowserLaunch, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewWatchError(models.ErrCodeBrowserLaunch, "failed to connect to browser", err)
	}

	// ── 3. CRITICAL DEFER: teardown on every exit path ──────────────
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			slog.Warn("browser close failed", "error", closeErr)
		}
		l.Kill()
		l.Cleanup()
	}()

	// ── 4. Page + stealth ───────────────────────────────────────────
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewWatchError(models.ErrCodeBrowserLaunch, "failed to open page", err)
	}

	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	// Extra headers (custom + a plausible Referer when none was given).
	extraHeaders := make(map[string]string, len(req.Headers)+1)
	if _, hasReferer := req.Headers["Referer"]; !hasReferer {
		if u, parseErr := url.Parse(req.URL); parseErr == nil {
			extraHeaders["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
		}
	}
	for k, v := range req.Headers {
		extraHeaders[k] = v
	}
	if len(extraHeaders) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(extraHeaders),
		}.Call(page)
	}

	// ── 5. Bind context; register idle listener before Navigate ────
	p := page.Context(ctx)
	waitIdle := p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)

	// ── 6. Navigate + wait ──────────────────────────────────────────
	if navErr := p.Navigate(req.URL); navErr != nil {
		return nil, categorizeError(navErr, "navigation to target URL failed")
	}
	waitIdle()

	// Status code via the Navigation Timing API (best-effort; avoids CDP
	// event listeners entirely).
	statusCode := 0
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		statusCode = res.Value.Int()
	}

	// ── 7. Extract rendered document ────────────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &FetchResult{
		HTML:       rawHTML,
		Title:      title,
		StatusCode: statusCode,
		FinalURL:   finalURL,
		EngineName: e.Name(),
	}, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed WatchErrors so the report
// layer can distinguish timeouts from navigation failures.
func categorizeError(err error, msg string) *models.WatchError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewWatchError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewWatchError(models.ErrCodeTimeout, "fetch canceled", err)
	default:
		return models.NewWatchError(models.ErrCodeNavigation, msg, err)
	}
}
