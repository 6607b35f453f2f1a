package odata

import (
	"context"
	"iter"
	"net/url"

	"github.com/custodia-labs/m365/rest"
)

// Getter is the slice of the connection the pager needs.
type Getter interface {
	Get(ctx context.Context, rawURL string, params url.Values, out any, opts ...rest.RequestOption) error
}

// Page is one page of an OData collection response.
type Page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// Pager walks an OData collection by following @odata.nextLink until the
// collection is exhausted or the limit is reached. A Pager is single use.
type Pager[T any] struct {
	client  Getter
	nextURL string
	params  url.Values
	opts    []rest.RequestOption

	limit   int
	fetched int
	started bool
}

// NewPager returns a pager over the collection at rawURL. The params apply
// to the first request only; next links carry their own query.
func NewPager[T any](client Getter, rawURL string, params url.Values, opts ...rest.RequestOption) *Pager[T] {
	return &Pager[T]{
		client:  client,
		nextURL: rawURL,
		params:  params,
		opts:    opts,
	}
}

// Limit caps the total number of items returned across all pages.
func (p *Pager[T]) Limit(n int) *Pager[T] {
	p.limit = n
	return p
}

// More reports whether another page may be available.
func (p *Pager[T]) More() bool {
	return p.nextURL != ""
}

// NextPage fetches the next page of items. The final page is trimmed when
// it would exceed the limit. Returns an empty slice once exhausted.
func (p *Pager[T]) NextPage(ctx context.Context) ([]T, error) {
	if p.nextURL == "" {
		return nil, nil
	}

	var page Page[T]
	params := p.params
	if p.started {
		params = nil
	}
	if err := p.client.Get(ctx, p.nextURL, params, &page, p.opts...); err != nil {
		return nil, err
	}
	p.started = true
	p.nextURL = page.NextLink

	items := page.Value
	if p.limit > 0 {
		remaining := p.limit - p.fetched
		if len(items) >= remaining {
			items = items[:remaining]
			p.nextURL = ""
		}
	}
	p.fetched += len(items)
	return items, nil
}

// All returns an iterator over every item. Iteration stops at the first
// error, which is yielded with a zero item.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for p.More() {
			items, err := p.NextPage(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}
