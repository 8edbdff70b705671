// Package tokenize splits free text into lowercase word tokens for the
// dictionary store.
package tokenize

import (
	"iter"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordRE matches ASCII letter runs that may be joined by a single internal
// apostrophe or hyphen ("don't", "well-known"). Everything else, including
// leading or trailing apostrophes and hyphens, separates tokens.
var wordRE = regexp.MustCompile(`[a-z]+(?:['-][a-z]+)*`)

var tokenRE = regexp.MustCompile(`^` + wordRE.String() + `$`)

// quoteReplacer folds the typographic apostrophe into a plain one so
// contractions typed either way produce the same token.
var quoteReplacer = strings.NewReplacer("’", "'")

// Normalize lowercases text and maps the right single quotation mark to an
// apostrophe.
//
// Lowercasing uses the full Unicode mapping and runs before tokens are
// matched, so a few non-ASCII letters turn into ASCII ones: the Kelvin sign
// (U+212A) becomes "k", and the dotted capital İ becomes "i" followed by a
// combining dot, which splits "İstanbul" into "i" and "stanbul". Other
// non-ASCII letters are separators.
func Normalize(text string) string {
	return quoteReplacer.Replace(cases.Lower(language.Und).String(text))
}

// Tokens returns the word tokens of text in order of appearance. The
// sequence is evaluated lazily and may be ranged over any number of times.
func Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := Normalize(text)
		for rest != "" {
			loc := wordRE.FindStringIndex(rest)
			if loc == nil {
				return
			}
			if !yield(rest[loc[0]:loc[1]]) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}

// All collects every token of text.
func All(text string) []string {
	var out []string
	for tok := range Tokens(text) {
		out = append(out, tok)
	}
	return out
}

// IsToken reports whether s is exactly one token as produced by Tokens.
func IsToken(s string) bool {
	return tokenRE.MatchString(s)
}

// IsWord reports whether token is non-empty and made only of ASCII letters.
// Checking uses it to skip numbers, contractions and hyphenated compounds.
func IsWord(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
