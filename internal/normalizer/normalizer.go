// Package normalizer converts locale-formatted decimals ("1.234,56") into the canonical
// form expected by the remote sheet ("1234.56").
package normalizer

import "strings"

// Normalize drops every grouping period, then turns the decimal comma into a period.
// Empty input yields empty output.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ReplaceAll(raw, ".", ""), ",", ".")
}
