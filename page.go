package keyset

import (
	"context"

	"github.com/samber/lo"
)

// RawPageRequest is intended for API payloads. For proper code generation,
// inline it:
//
//	type MyFilter struct {
//	    Paging RawPageRequest `json:",inline"`
//	}
type RawPageRequest struct {
	// Limit - maximum number of records to return in the response.
	// Normalized via NormalizeLimit.
	Limit int `json:"limit"`
	// StartToken - base64-encoded boundary token obtained from a previous
	// Page. If empty, the first page (or the last one, when Backward is set)
	// is returned.
	StartToken string `json:"startToken"`
	// Backward requests the page before the boundary instead of after it.
	Backward bool `json:"backward,omitempty"`
	// WithTotal additionally counts the unbounded dataset.
	WithTotal bool `json:"withTotal,omitempty"`
}

// Page is a paginated result container.
type Page[T any] struct {
	// Items result elements, in forward sort order.
	Items []KeysetItem[T]
	// AppliedLimit effective limit used for the query.
	AppliedLimit int
	// HasMore reports whether more rows exist beyond this page in the
	// requested direction.
	HasMore bool
	// NextPageToken fetches the page after Items. Empty on the last page.
	NextPageToken string
	// PrevPageToken fetches the page before Items. Empty on the first page.
	PrevPageToken string
	// Total number of elements in the unbounded dataset. Valid only when
	// HasTotal is set; requested via RawPageRequest.WithTotal.
	Total    int64
	HasTotal bool
}

// GetPage decodes the request token and fetches one page with lookahead: one
// extra row beyond the limit is requested to learn whether a further page
// exists, then trimmed before returning.
func (a *Adapter[T]) GetPage(ctx context.Context, req RawPageRequest) (*Page[T], error) {
	limit := NormalizeLimit(req.Limit)

	boundary, err := DecodeBoundary(req.StartToken)
	if err != nil {
		return nil, err
	}

	direction := lo.Ternary(req.Backward, BoundUpper, BoundLower)

	// Lookahead: fetch one extra record to determine if there is a page
	// beyond this one.
	items, err := a.GetKeysetItems(ctx, 0, limit+1, boundary, direction)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		// The extra row is the one furthest in the requested direction: the
		// last item for forward pages, the first one for backward pages
		// (items are already restored to forward order).
		items = lo.Ternary(direction == BoundUpper, items[1:], items[:limit])
	}

	page := &Page[T]{
		Items:        items,
		AppliedLimit: limit,
		HasMore:      hasMore,
	}

	if err := a.fillTokens(page, boundary, direction); err != nil {
		return nil, err
	}

	if req.WithTotal {
		total, ok, err := a.CountItems(ctx)
		if err != nil {
			return nil, err
		}
		page.Total, page.HasTotal = total, ok
	}

	return page, nil
}

// fillTokens derives continuation tokens from the page edges. A token is
// emitted only when rows are known to exist on that side: beyond the trimmed
// edge when lookahead saw an extra row, and on the boundary side whenever the
// request started from a boundary.
func (a *Adapter[T]) fillTokens(page *Page[T], boundary Boundary, direction Bound) error {
	if len(page.Items) == 0 {
		return nil
	}

	first := lo.FirstOrEmpty(page.Items)
	last := lo.LastOrEmpty(page.Items)

	var err error
	switch direction {
	case BoundUpper:
		if page.HasMore {
			if page.PrevPageToken, err = EncodeBoundary(a.ordering, first.Boundary); err != nil {
				return err
			}
		}
		if len(boundary) > 0 {
			if page.NextPageToken, err = EncodeBoundary(a.ordering, last.Boundary); err != nil {
				return err
			}
		}
	default:
		if page.HasMore {
			if page.NextPageToken, err = EncodeBoundary(a.ordering, last.Boundary); err != nil {
				return err
			}
		}
		if len(boundary) > 0 {
			if page.PrevPageToken, err = EncodeBoundary(a.ordering, first.Boundary); err != nil {
				return err
			}
		}
	}

	return nil
}
