package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	PriceSyncSynced = "synced"
	PriceSyncNoData = "no_data"
	PriceSyncError  = "error"
)

// stockx.Clientが満たす
type MarketPriceSource interface {
	SearchPrice(ctx context.Context, query string) (decimal.Decimal, bool, error)
}

type PriceSyncUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	source   MarketPriceSource
	clock    Clock
}

func NewPriceSyncUsecase(tx repo.TransactionManager, products repo.ProductRepository, source MarketPriceSource, clock Clock) *PriceSyncUsecase {
	return &PriceSyncUsecase{tx: tx, products: products, source: source, clock: clock}
}

type PriceSyncItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	OldPrice *float64 `json:"old_price"`
	NewPrice *float64 `json:"new_price"`
	Error    string   `json:"error,omitempty"`
}

type PriceSyncOutput struct {
	Synced    int             `json:"synced"`
	Total     int             `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
	Results   []PriceSyncItem `json:"results"`
}

func nullToPtr(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// Sync refreshes the market price of every sneaker from the price feed.
// Each product is independent: one failure does not stop the run.
func (u *PriceSyncUsecase) Sync(ctx context.Context, actorUserID string) (PriceSyncOutput, error) {
	products, err := u.products.ListByCategory(ctx, model.ProductCategorySneaker)
	if err != nil {
		slog.ErrorContext(ctx, "list sneakers failed", "err", err)
		return PriceSyncOutput{}, NewHTTPError(http.StatusInternalServerError, "Price sync failed")
	}

	now := u.clock.Now()
	out := PriceSyncOutput{Timestamp: now, Results: make([]PriceSyncItem, 0, len(products))}
	for _, p := range products {
		term := strings.TrimSpace(p.SKU)
		if term == "" {
			term = strings.TrimSpace(p.Name)
		}
		if term == "" {
			continue
		}
		out.Total++

		item := PriceSyncItem{ID: p.ID, Name: p.Name, OldPrice: nullToPtr(p.MarketPrice)}
		price, found, err := u.source.SearchPrice(ctx, term)
		if err != nil {
			slog.WarnContext(ctx, "market price lookup failed", "product_id", p.ID, "err", err)
		}
		if err != nil || !found {
			item.Status = PriceSyncNoData
			out.Results = append(out.Results, item)
			continue
		}

		if err := u.savePrice(ctx, actorUserID, p, price, now); err != nil {
			slog.ErrorContext(ctx, "save market price failed", "product_id", p.ID, "err", err)
			item.Status = PriceSyncError
			item.Error = "update failed"
			out.Results = append(out.Results, item)
			continue
		}
		f := price.InexactFloat64()
		item.Status = PriceSyncSynced
		item.NewPrice = &f
		out.Results = append(out.Results, item)
		out.Synced++
	}
	return out, nil
}

func (u *PriceSyncUsecase) savePrice(ctx context.Context, actorUserID string, p model.Product, price decimal.Decimal, now time.Time) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Products().UpdateMarketPrice(ctx, p.ID, price, now); err != nil {
			return err
		}
		beforeJSON, _ := json.Marshal(map[string]any{"market_price": nullToPtr(p.MarketPrice)})
		afterJSON, _ := json.Marshal(map[string]any{"market_price": price.InexactFloat64()})
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionSyncMarketPrice,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    now,
		})
	})
}

// 直近に同期した順
func (u *PriceSyncUsecase) Status(ctx context.Context) ([]model.Product, error) {
	products, err := u.products.ListPriced(ctx, model.ProductCategorySneaker)
	if err != nil {
		slog.ErrorContext(ctx, "list priced products failed", "err", err)
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return products, nil
}
