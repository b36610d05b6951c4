// Package track holds the set algebra that turns one run's scan into an
// updated accumulated state and a change report: Merge folds the current
// scan into history, Diff compares the two most recent snapshots.
package track

import "sort"

// Merge folds the current scan into the accumulated results.
//
// prior maps URL -> model names found across all previous runs. current maps
// URL -> names found this run, computed only for the models in requested.
// Per URL present in either source:
//
//  1. start from the prior set (empty if the URL is new),
//  2. remove every requested name (those are being refreshed; a stale
//     positive must not survive a rescan that no longer finds it),
//  3. union in the names actually found this run,
//  4. sort for deterministic output.
//
// URLs present only in history were not rescanned and keep their prior set
// unchanged. Models omitted from requested are never touched, even when the
// current scan did not find them (non-interference). Merging the same scan
// twice yields the same result as once.
func Merge(prior, current map[string][]string, requested []string) map[string][]string {
	refreshed := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		refreshed[name] = struct{}{}
	}

	merged := make(map[string][]string, len(prior)+len(current))

	for url, names := range prior {
		if _, rescanned := current[url]; !rescanned {
			merged[url] = append([]string(nil), names...)
			continue
		}
		kept := make(map[string]struct{}, len(names))
		for _, n := range names {
			if _, ok := refreshed[n]; !ok {
				kept[n] = struct{}{}
			}
		}
		merged[url] = setToSorted(kept)
	}

	for url, found := range current {
		set := make(map[string]struct{}, len(found))
		for _, n := range merged[url] {
			set[n] = struct{}{}
		}
		for _, n := range found {
			set[n] = struct{}{}
		}
		merged[url] = setToSorted(set)
	}

	return merged
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
