package wcl

import (
	"context"
	"iter"
)

type pageFunc[T any] func(ctx context.Context, page int) (items []T, more bool, err error)

// paginate turns a page fetcher into a lazy sequence starting at page 1.
// Fetching stops when a page reports no more pages, when fetch fails, or
// when the consumer stops iterating.
func paginate[T any](ctx context.Context, fetch pageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page := 1; ; page++ {
			items, more, err := fetch(ctx, page)
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
			if !more {
				return
			}
		}
	}
}
