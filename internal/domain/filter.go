package domain

import "strings"

// Filter returns the links whose title or URL contains query, case-insensitively.
// An empty (or whitespace) query matches everything. Order is preserved and
// the input is never modified.
func Filter(links []Link, query string) []Link {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if q == "" ||
			strings.Contains(strings.ToLower(l.Title), q) ||
			strings.Contains(strings.ToLower(l.URL), q) {
			out = append(out, l)
		}
	}
	return out
}
