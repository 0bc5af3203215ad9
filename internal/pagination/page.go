package pagination

import (
	"errors"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

var (
	ErrInvalidPage  = errors.New("page must be a positive integer")
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)

type Request struct {
	Page  int
	Limit int
}

type Page[T any] struct {
	Items      []T
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Lookup returns a query value and whether the key was present at all.
type Lookup func(key string) (string, bool)

// Parse reads the page and limit query values. Absent keys fall back to the
// defaults; a present key must hold an integer >= 1, so "?page=" is rejected.
func Parse(lookup Lookup) (Request, error) {
	page, pageErr := parseValue(lookup, "page", DefaultPage, ErrInvalidPage)
	limit, limitErr := parseValue(lookup, "limit", DefaultLimit, ErrInvalidLimit)
	if err := errors.Join(pageErr, limitErr); err != nil {
		return Request{}, err
	}
	return Request{Page: page, Limit: limit}, nil
}

func parseValue(lookup Lookup, key string, def int, invalid error) (int, error) {
	raw, ok := lookup(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid
	}
	return n, nil
}

func (r Request) Valid() bool {
	return r.Page >= 1 && r.Limit >= 1
}

// Slice returns the items of the requested page. A page past the end yields
// an empty slice.
func Slice[T any](items []T, req Request) Page[T] {
	if !req.Valid() {
		req = Request{Page: DefaultPage, Limit: DefaultLimit}
	}
	total := len(items)
	p := Page[T]{
		Items:      []T{},
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages(total, req.Limit),
	}
	// compared before multiplying so huge pages cannot overflow
	if req.Page-1 >= p.TotalPages {
		return p
	}
	start := (req.Page - 1) * req.Limit
	end := total
	if req.Limit < total-start {
		end = start + req.Limit
	}
	p.Items = append(p.Items, items[start:end]...)
	return p
}

func totalPages(total, limit int) int {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}
