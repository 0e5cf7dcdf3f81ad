// Package datastore holds the pagination plumbing shared by every store.
package datastore

// ListOptions caps and offsets list queries. A Limit of -1 means unbounded,
// which ingestion internals use when they need the whole table.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultLimit is applied when a caller does not ask for a specific page
// size. It is deliberately large; list endpoints serve analytical reads, not
// UI pages.
const DefaultLimit = 1000

// ParseListOptions normalizes raw limit/offset values from a request.
func ParseListOptions(limit, offset int) ListOptions {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 {
		// Unbounded read, offset is meaningless.
		limit = -1
		offset = 0
	}
	if offset < 0 {
		offset = 0
	}
	return ListOptions{Limit: limit, Offset: offset}
}
