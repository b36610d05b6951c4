// Package matcher builds tolerant, case-insensitive patterns from
// human-readable model names. Pages rarely spell a model name the way a
// vendor does ("Claude 4 Opus" appears as "claude-4-opus", "Claude4 Opus",
// "CLAUDE-4-OPUS", ...), so each pair of adjacent words may be separated by
// a dash, a space, or nothing at all. Words themselves are matched
// literally.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher is a compiled, immutable name pattern. Build one with Compile and
// pass the set into the scanner explicitly; there are no package-level
// pattern tables.
type Matcher struct {
	name string
	re   *regexp.Regexp
}

// Compile builds a Matcher for the given display name. The name is split on
// whitespace; each word is escaped and the words are joined with `[- ]?`.
// An empty or whitespace-only name is rejected.
func Compile(name string) (Matcher, error) {
	words := strings.Fields(name)
	if len(words) == 0 {
		return Matcher{}, fmt.Errorf("matcher: empty model name")
	}

	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp.QuoteMeta(w)
	}

	re, err := regexp.Compile(`(?i)` + strings.Join(escaped, `[- ]?`))
	if err != nil {
		return Matcher{}, fmt.Errorf("matcher: compile %q: %w", name, err)
	}

	return Matcher{name: name, re: re}, nil
}

// CompileAll builds matchers for every name, failing on the first bad one.
// The returned slice preserves input order, which defines reporting order.
func CompileAll(names []string) ([]Matcher, error) {
	matchers := make([]Matcher, 0, len(names))
	for _, n := range names {
		m, err := Compile(n)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

// Name returns the canonical display name the matcher was built from.
func (m Matcher) Name() string { return m.name }

// Match reports whether the text mentions the model name.
func (m Matcher) Match(text string) bool {
	return m.re.MatchString(text)
}
