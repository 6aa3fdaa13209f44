package store

import "github.com/lib/pq"

// pqArray adapts a Go string slice to a driver.Valuer for containment
// queries against a text[] column (spec.md §4.1 tags index).
func pqArray(ss []string) pq.StringArray {
	return pq.StringArray(ss)
}
