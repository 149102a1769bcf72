package utils

import (
	"maps"
	"slices"
)

// GetKeys returns the keys of m sorted, handy for "must be [a|b|c]" messages.
func GetKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}
