// Package engine provides the page-fetch tier: a lightweight HTTP engine for
// static pages and a browser engine for JavaScript-rendered ones. The
// scanner decides when to escalate from one to the other.
package engine

import (
	"context"
	"time"
)

// Engine is the interface both fetch engines implement.
type Engine interface {
	// Name returns the engine identifier ("http" or "browser").
	Name() string

	// Fetch retrieves the page content for the given request. The request
	// timeout bounds a single attempt; the engine must release all resources
	// it acquired on every exit path.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}
