// Package strings parses list-valued settings.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value, trimming entries and dropping
// empty and repeated ones. Order is preserved; nil is returned when nothing
// remains.
func SplitList(s string) []string {
	return dedupe(strings.Split(s, ","), strings.TrimSpace)
}

// SplitHosts is SplitList for host:port lists, which compare case-insensitively.
func SplitHosts(s string) []string {
	return dedupe(strings.Split(s, ","), func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

func dedupe(values []string, normalise func(string) string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = normalise(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
