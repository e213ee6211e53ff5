package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/integrations/pokemontcg"
)

type CardCatalog interface {
	Search(ctx context.Context, query string, page int) (pokemontcg.SearchResult, error)
}

type CardSearchUsecase struct {
	catalog CardCatalog
}

func NewCardSearchUsecase(catalog CardCatalog) *CardSearchUsecase {
	return &CardSearchUsecase{catalog: catalog}
}

func (u *CardSearchUsecase) Search(ctx context.Context, query string, page int) (pokemontcg.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return pokemontcg.SearchResult{}, NewHTTPError(http.StatusBadRequest, "Query required")
	}

	res, err := u.catalog.Search(ctx, q, page)
	if err != nil {
		var apiErr *pokemontcg.APIError
		if errors.As(err, &apiErr) {
			return pokemontcg.SearchResult{}, NewHTTPError(apiErr.Status, "Pokemon TCG API error")
		}
		slog.WarnContext(ctx, "card search failed", "query", q, "err", err)
		return pokemontcg.SearchResult{}, NewHTTPError(http.StatusInternalServerError, "Search failed - please try again.")
	}
	return res, nil
}
