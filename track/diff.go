package track

import (
	"sort"

	"github.com/use-agent/modelwatch/models"
)

// Diff compares the prior accumulated results against the freshly merged
// ones and returns what changed. old == nil means there was no prior
// snapshot: the change set short-circuits to FirstRun with every current URL
// listed as new.
//
// The comparison is strictly between these two snapshots; older history is
// never consulted.
func Diff(old, new map[string][]string) models.ChangeSet {
	if old == nil {
		return models.ChangeSet{
			FirstRun: true,
			NewURLs:  sortedKeys(new),
		}
	}

	cs := models.ChangeSet{ModelChanges: make(map[string]models.ModelDelta)}

	for url := range new {
		if _, ok := old[url]; !ok {
			cs.NewURLs = append(cs.NewURLs, url)
		}
	}
	for url := range old {
		if _, ok := new[url]; !ok {
			cs.RemovedURLs = append(cs.RemovedURLs, url)
		}
	}
	sort.Strings(cs.NewURLs)
	sort.Strings(cs.RemovedURLs)

	for url, newNames := range new {
		oldNames, ok := old[url]
		if !ok {
			continue
		}
		delta := models.ModelDelta{
			Added:   subtract(newNames, oldNames),
			Removed: subtract(oldNames, newNames),
		}
		if len(delta.Added) > 0 || len(delta.Removed) > 0 {
			cs.ModelChanges[url] = delta
		}
	}

	if len(cs.ModelChanges) == 0 {
		cs.ModelChanges = nil
	}
	return cs
}

// subtract returns the names in a that are not in b, sorted.
func subtract(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, n := range b {
		inB[n] = struct{}{}
	}
	var out []string
	for _, n := range a {
		if _, ok := inB[n]; !ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
