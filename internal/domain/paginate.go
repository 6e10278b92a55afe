package domain

import (
	"strconv"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/query"
)

// DefaultPageLimit applies when a page request has no limit.
const DefaultPageLimit = 100

// paginate returns one page of items.
//
// The cursor key is the position of the next item, so a page started
// from a key continues exactly where the previous page stopped. Offset
// and key are mutually exclusive. Total is reported only for offset
// pages that ask for it.
func paginate[T any](items []T, page *query.PageRequest) ([]T, *query.PageResponse, error) {
	if page == nil {
		page = &query.PageRequest{}
	}
	if len(page.Key) > 0 && page.Offset > 0 {
		return nil, nil, chain.ValidationError("pagination: either offset or key is expected, got both")
	}

	ordered := items
	if page.Reverse {
		ordered = make([]T, len(items))
		for i, it := range items {
			ordered[len(items)-1-i] = it
		}
	}

	start := uint64(page.Offset)
	if len(page.Key) > 0 {
		pos, err := strconv.ParseUint(string(page.Key), 10, 64)
		if err != nil {
			return nil, nil, chain.ValidationError("pagination: invalid key %q", page.Key)
		}
		start = pos
	}
	limit := uint64(page.Limit)
	if limit == 0 {
		limit = DefaultPageLimit
	}

	n := uint64(len(ordered))
	if start > n {
		start = n
	}
	end := n
	if limit < n-start {
		end = start + limit
	}

	resp := &query.PageResponse{}
	if end < n {
		resp.NextKey = []byte(strconv.FormatUint(end, 10))
	}
	if page.CountTotal && len(page.Key) == 0 {
		total := chain.Uint64(n)
		resp.Total = &total
	}
	out := make([]T, end-start)
	copy(out, ordered[start:end])
	return out, resp, nil
}

// filter returns the items keep accepts, in order.
func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
