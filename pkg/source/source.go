// Package source defines the paginated data-source boundary consumed by the
// collection controller, together with decorators that add retry and caching
// policy at that boundary.
package source

import (
	"context"
	"sort"
	"strings"
)

// Page is a single page of results from a paginated source.
type Page[T any] struct {
	// Items are the page elements in source order.
	Items []T

	// NextCursor is the continuation token for the following page.
	// Empty means the dataset is exhausted.
	NextCursor string
}

// HasMore reports whether another page can be requested after this one.
func (p Page[T]) HasMore() bool {
	return p.NextCursor != ""
}

// Params is the filter/sort/search configuration a fetch is issued under.
// Two Params values are materially equal when their canonical keys match.
type Params struct {
	// Search is a free-text search term.
	Search string

	// Sort names the requested ordering, e.g. "created_at desc".
	Sort string

	// Filters are equality filters applied to the dataset.
	Filters map[string]string
}

// Key returns a canonical representation of the params. Filter entries are
// serialized in sorted key order so that map iteration order never produces
// two different keys for the same configuration.
func (p Params) Key() string {
	var b strings.Builder
	b.WriteString("search=")
	b.WriteString(p.Search)
	b.WriteString("&sort=")
	b.WriteString(p.Sort)

	names := make([]string, 0, len(p.Filters))
	for name := range p.Filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b.WriteString("&f:")
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(p.Filters[name])
	}

	return b.String()
}

// Equal reports material equality between two parameter sets.
func (p Params) Equal(other Params) bool {
	return p.Key() == other.Key()
}

// PageSource is the boundary to a cursor-paginated dataset.
//
// Implementations must be stateless and idempotent per (cursor, params):
// fetching the same page twice returns the same items. Failures propagate as
// a plain error; retry and caching policy belong to decorators around the
// source, never to the controller.
type PageSource[T any] interface {
	// FetchPage returns up to limit items starting at cursor. An empty
	// cursor requests the first page.
	FetchPage(ctx context.Context, cursor string, limit int, params Params) (Page[T], error)
}

// PageSourceFunc adapts a function to the PageSource interface.
type PageSourceFunc[T any] func(ctx context.Context, cursor string, limit int, params Params) (Page[T], error)

// FetchPage implements PageSource.
func (f PageSourceFunc[T]) FetchPage(ctx context.Context, cursor string, limit int, params Params) (Page[T], error) {
	return f(ctx, cursor, limit, params)
}
