package text

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)

// URLs returns the web addresses cited in s in order of appearance.
// Trailing sentence punctuation is trimmed and bare www. hosts get an
// http:// scheme.
func URLs(s string) []string {
	var urls []string
	for _, m := range urlPattern.FindAllString(s, -1) {
		m = strings.TrimRight(m, ".,;:!?)]}")
		if strings.HasPrefix(strings.ToLower(m), "www.") {
			m = "http://" + m
		}
		urls = append(urls, m)
	}
	return urls
}
