// Package namegen derives filesystem- and command-safe slugs from free-text
// rule descriptions.
//
// Synthesis is an ordered list of matcher strategies with a strict
// first-match-wins contract:
//
//  1. explicit names ("create a command called 'echo-nicer'", any quoted
//     token)
//  2. a fixed legacy keyword table that rule authors depend on
//  3. tokenize, drop short tokens and stop-words, join the first two
//  4. a time-based unique token under the "auto-cmd" namespace
//
// The ordering is part of the contract: legacy phrases must keep resolving
// to their historical slugs, so new strategies may only be appended after
// the fallbacks, never inserted before them.
package namegen

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// namedPatterns extract an explicitly requested command name. Tried in
// order; the first capture wins.
var namedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:create|make|build).*?(?:called|named)\s+['"` + "`" + `]?([a-zA-Z0-9-_]+)['"` + "`" + `]?`),
	regexp.MustCompile(`(?i)(?:called|named)\s+['"` + "`" + `]?([a-zA-Z0-9-_]+)['"` + "`" + `]?`),
	regexp.MustCompile(`['"` + "`" + `]([a-zA-Z0-9-_]+)['"` + "`" + `]`),
}

// legacyNames maps historical rule phrasings to their well-known slugs.
// Every listed keyword must appear in the description (case-insensitive).
var legacyNames = []struct {
	keywords []string
	slug     string
}{
	{[]string{"git", "haiku"}, "git-haiku"},
	{[]string{"todo"}, "find-todos"},
	{[]string{"pretty"}, "prettify"},
	{[]string{"week"}, "week-summary"},
	{[]string{"color"}, "colorize"},
	{[]string{"count", "lines"}, "count-lines"},
}

// stopWords are dropped during tokenization: articles, conjunctions,
// auxiliaries, and the domain words of rule authoring.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "have": true, "when": true, "then": true,
	"whenever": true, "create": true, "make": true, "command": true,
	"called": true, "named": true,
}

// Synthesize maps a free-text description to a slug. Deterministic: the
// same description and clock reading always produce the same slug. The
// clock only matters for the final fallback, which needs a unique,
// collision-resistant token.
func Synthesize(text string, now time.Time) string {
	for _, p := range namedPatterns {
		if m := p.FindStringSubmatch(text); m != nil && m[1] != "" {
			return strings.ToLower(m[1])
		}
	}

	lower := strings.ToLower(norm.NFC.String(text))
	for _, legacy := range legacyNames {
		if containsAll(lower, legacy.keywords) {
			return legacy.slug
		}
	}

	if words := keyTokens(lower); len(words) > 0 {
		return strings.Join(words, "-")
	}

	return "auto-cmd-" + strconv.FormatInt(now.UnixMilli(), 36)
}

// keyTokens strips everything outside [a-z0-9 ], splits on whitespace,
// drops tokens of length <= 2 and stop-words, and keeps at most the first
// two survivors.
func keyTokens(lower string) []string {
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}

	var out []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) <= 2 || stopWords[w] {
			continue
		}
		out = append(out, w)
		if len(out) == 2 {
			break
		}
	}
	return out
}

func containsAll(s string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(s, k) {
			return false
		}
	}
	return true
}
