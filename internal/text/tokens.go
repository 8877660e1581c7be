package text

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopwords are excluded from indexable terms
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"if": true, "of": true, "to": true, "in": true, "on": true, "at": true,
	"by": true, "for": true, "with": true, "from": true, "as": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true, "being": true,
	"it": true, "its": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "we": true, "you": true, "he": true, "she": true, "they": true,
	"me": true, "us": true, "him": true, "her": true, "them": true, "my": true,
	"our": true, "your": true, "their": true, "his": true, "do": true, "does": true,
	"did": true, "has": true, "have": true, "had": true, "so": true, "than": true,
	"then": true, "there": true, "here": true, "which": true, "who": true, "whom": true,
	"what": true, "when": true, "where": true, "why": true, "how": true, "all": true,
	"any": true, "some": true, "such": true, "into": true, "about": true, "also": true,
	"very": true, "just": true, "not": true, "no": true, "can": true, "would": true,
	"could": true, "may": true, "might": true, "am": true, "up": true, "out": true,
	"over": true, "only": true, "own": true, "same": true, "too": true, "s": true,
}

// Normalize applies NFKC normalization and lowercases
func Normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// Words splits s into lowercase words of letters and digits, keeping
// stopwords. Apostrophes inside words are dropped ("don't" → "dont").
func Words(s string) []string {
	s = strings.ReplaceAll(Normalize(s), "'", "")
	s = strings.ReplaceAll(s, "’", "")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Tokenize returns the indexable terms of s: words without stopwords and
// single characters
func Tokenize(s string) []string {
	words := Words(s)
	tokens := words[:0]
	for _, w := range words {
		if len([]rune(w)) < 2 || stopwords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// TermSet returns the sorted distinct indexable terms of s
func TermSet(s string) []string {
	seen := make(map[string]bool)
	var set []string
	for _, t := range Tokenize(s) {
		if !seen[t] {
			seen[t] = true
			set = append(set, t)
		}
	}
	sort.Strings(set)
	return set
}

// Padded returns the words of s joined by single spaces with a leading and
// trailing space, so phrase patterns padded the same way only match whole words
func Padded(s string) string {
	return " " + strings.Join(Words(s), " ") + " "
}
