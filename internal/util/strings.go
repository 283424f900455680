// Package util holds small string helpers shared by the CLI and orchestrator.
package util

import "strings"

// SplitColumns parses a comma-separated column list as given on the command
// line. See NormalizeColumns for the rules applied to each entry.
func SplitColumns(s string) []string {
	if s == "" {
		return nil
	}
	return NormalizeColumns(strings.Split(s, ","))
}

// NormalizeColumns trims and lowercases column names, drops empty entries and
// repeats, and keeps first-seen order. Returns nil when nothing remains.
func NormalizeColumns(columns []string) []string {
	var result []string
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		result = append(result, c)
	}
	return result
}
