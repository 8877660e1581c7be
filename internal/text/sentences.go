package text

import (
	"strings"
	"unicode"
)

// abbreviations that end with a period but do not end a sentence
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "hon": true,
	"art": true, "sec": true, "cap": true, "vs": true,
	"v": true, "e.g": true, "i.e": true, "etc": true, "cf": true, "jr": true,
}

// SplitSentences splits text into sentences on '.', '!' and '?' followed by
// whitespace or end of input. Decimal points and common abbreviations do not
// split. Fragments without any letter or digit are dropped.
func SplitSentences(s string) []string {
	s = strings.Join(strings.Fields(s), " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		current.Reset()
		if hasWordRune(sentence) {
			sentences = append(sentences, sentence)
		}
	}

	for i := 0; i < len(s); i++ {
		b := s[i]
		current.WriteByte(b)

		if b != '.' && b != '!' && b != '?' {
			continue
		}
		// Collapse runs like "?!" or "..."
		for i+1 < len(s) && (s[i+1] == '.' || s[i+1] == '!' || s[i+1] == '?') {
			i++
			current.WriteByte(s[i])
		}
		if i+1 < len(s) && s[i+1] != ' ' {
			continue
		}
		if b == '.' && isAbbreviation(current.String()) {
			continue
		}
		flush()
	}
	flush()

	return sentences
}

// isAbbreviation reports whether the sentence buffer ends in a known
// abbreviation or a single initial ("J.")
func isAbbreviation(buf string) bool {
	buf = strings.TrimSuffix(buf, ".")
	idx := strings.LastIndexByte(buf, ' ')
	word := strings.ToLower(buf[idx+1:])
	if abbreviations[word] {
		return true
	}
	return len(word) == 1 && word != "i" && unicode.IsUpper(rune(buf[len(buf)-1]))
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
