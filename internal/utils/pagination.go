// Package utils holds small helpers shared across layers. Nothing in here
// knows about the domain.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// malformed. Used for query/path parameters where absence means "use the
// default" rather than "reject the request".
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
