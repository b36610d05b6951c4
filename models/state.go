package models

import "time"

// PersistedState is the on-disk snapshot of everything found so far.
// It round-trips through JSON: loading a just-saved file and re-saving it
// without intervening scans reproduces identical Results content.
type PersistedState struct {
	// LastCheck is the UTC timestamp of the run that wrote this snapshot.
	LastCheck time.Time `json:"last_check"`

	// Results maps each tracked URL to the sorted model names found there
	// across all runs. Lists never contain duplicates.
	Results map[string][]string `json:"results"`
}

// ModelDelta is the per-URL model-name difference between two snapshots.
type ModelDelta struct {
	Added   []string
	Removed []string
}

// ChangeSet is the derived (never persisted) difference between the prior
// snapshot and the freshly merged one.
type ChangeSet struct {
	// FirstRun is true when there was no prior snapshot; NewURLs then holds
	// every URL in the current state and the other fields are empty.
	FirstRun bool

	// NewURLs are URLs present now but not before, sorted.
	NewURLs []string

	// RemovedURLs are URLs present before but not now, sorted.
	RemovedURLs []string

	// ModelChanges holds non-empty per-URL deltas for URLs present in both
	// snapshots. Name lists are sorted.
	ModelChanges map[string]ModelDelta
}

// Empty reports whether the change set carries no changes at all.
func (c ChangeSet) Empty() bool {
	return !c.FirstRun && len(c.NewURLs) == 0 && len(c.RemovedURLs) == 0 && len(c.ModelChanges) == 0
}
