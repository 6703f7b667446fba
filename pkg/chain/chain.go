// Package chain walks cursor-paginated listings such as an option chain.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jonandersen/apca/pkg/osi"
)

// ErrPageLimit is returned by a PageFunc wrapped with Limit once it has been
// asked for more pages than allowed.
var ErrPageLimit = errors.New("page limit reached")

// Page is one page of a listing. An empty Cursor means there are no more
// pages.
type Page[T any] struct {
	Items  []T
	Cursor string
}

// PageFunc fetches the page at cursor. The first page is requested with an
// empty cursor.
type PageFunc[P, T any] func(ctx context.Context, params P, cursor string) (Page[T], error)

// Collect fetches pages sequentially until the cursor runs out and returns
// every item in server order. An error from fetch or ctx is returned as is
// and no items are returned with it.
func Collect[P, T any](ctx context.Context, params P, fetch PageFunc[P, T]) ([]T, error) {
	var (
		items  []T
		cursor string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(ctx, params, cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if page.Cursor == "" {
			return items, nil
		}
		cursor = page.Cursor
	}
}

// FetchAll collects every contract of a listing and sorts them by
// expiration, strike and option type, calls first. Remaining ties keep
// the ticker order.
func FetchAll[P any](ctx context.Context, params P, fetch PageFunc[P, osi.Contract]) ([]osi.Contract, error) {
	contracts, err := Collect(ctx, params, fetch)
	if err != nil {
		return nil, err
	}
	Sort(contracts)
	return contracts, nil
}

// Sort orders contracts in place by expiration, strike, option type and
// ticker. Equal contracts keep their relative order.
func Sort(contracts []osi.Contract) {
	sort.SliceStable(contracts, func(i, j int) bool {
		return less(contracts[i], contracts[j])
	})
}

func less(a, b osi.Contract) bool {
	if !a.Expiration.Equal(b.Expiration) {
		return a.Expiration.Before(b.Expiration)
	}
	if c := a.Strike.Decimal.Cmp(b.Strike.Decimal); c != 0 {
		return c < 0
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Ticker < b.Ticker
}

// Limit wraps fetch so that at most maxPages pages are requested per
// listing. The page after the last allowed one fails with ErrPageLimit.
// A maxPages below 1 disables the cap.
func Limit[P, T any](fetch PageFunc[P, T], maxPages int) PageFunc[P, T] {
	if maxPages < 1 {
		return fetch
	}
	pages := 0
	return func(ctx context.Context, params P, cursor string) (Page[T], error) {
		if cursor == "" {
			pages = 0
		}
		if pages >= maxPages {
			return Page[T]{}, fmt.Errorf("%w: %d pages", ErrPageLimit, maxPages)
		}
		pages++
		return fetch(ctx, params, cursor)
	}
}
