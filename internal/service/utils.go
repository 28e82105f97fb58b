package service

import (
	"context"

	"github.com/mmcdole/cineverse/internal/domain"
)

const defaultMaxPages = 5

// fetchPages walks pages starting at 1 until the last page, maxPages, or an
// error. Results from every page are concatenated in order.
func fetchPages(
	ctx context.Context,
	fetch func(ctx context.Context, page int) (*domain.Page, error),
	maxPages int,
	onProgress func(loaded, totalPages int),
) (*domain.Page, error) {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	all := &domain.Page{}
	for page := 1; page <= maxPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		p, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}

		all.Number = p.Number
		all.TotalPages = p.TotalPages
		all.TotalResults = p.TotalResults
		all.Results = append(all.Results, p.Results...)

		if onProgress != nil {
			onProgress(page, p.TotalPages)
		}

		if !p.HasNext() || len(p.Results) == 0 {
			break
		}
	}

	return all, nil
}
