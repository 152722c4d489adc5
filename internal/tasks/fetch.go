package tasks

import (
	"context"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/services"
	"github.com/desertthunder/cardx/internal/shared"
)

// DefaultPageSize is used when a non-positive page size is requested.
const DefaultPageSize = 100

// FetchAll walks the card listing page by page until a page comes back empty or short.
//
// A page shorter than pageSize is the last one, so no request is spent on a trailing empty page.
// pageSize is capped at [shared.MaxPageSize] so that a short page always means the listing ran out.
// Pages are concatenated in request order. The source is not snapshotted, so cards moved or
// created between page requests may be duplicated or missed.
func FetchAll(ctx context.Context, pager CardPager, filter services.CardFilter, pageSize int) ([]models.Card, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, shared.MaxPageSize)

	var all []models.Card
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := pager.Cards(ctx, filter, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}
