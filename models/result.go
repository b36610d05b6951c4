package models

// URLReport is the outcome of checking one URL during a run. Exactly one of
// the two shapes is populated: a successful check carries Found (possibly
// empty), a failed fetch carries FetchErr. This replaces the loose
// optional-error-key convention with an explicit tagged value.
type URLReport struct {
	// URL is the page that was checked.
	URL string

	// Found lists the model names matched in the page content, in matcher
	// order, without duplicates. Valid only when FetchErr is empty.
	Found []string

	// FetchErr is the human-readable fetch failure, empty on success.
	FetchErr string

	// FetchMethod records how the winning fetch was performed:
	// "http", "browser", or "" when both stages failed.
	FetchMethod string

	// HTML is the document text the match ran against. Kept so the run can
	// snapshot pages without refetching; never persisted.
	HTML string
}

// Failed reports whether the fetch failed for this URL.
func (r URLReport) Failed() bool { return r.FetchErr != "" }

// ScanResult maps each checked URL to the model names found there during a
// single run. A failed URL is present with an empty name list so the
// reconciler still refreshes its requested models.
type ScanResult map[string][]string
