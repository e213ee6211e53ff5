package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type CardInventoryUsecase struct {
	tx    repo.TransactionManager
	clock Clock
}

func NewCardInventoryUsecase(tx repo.TransactionManager, clock Clock) *CardInventoryUsecase {
	return &CardInventoryUsecase{tx: tx, clock: clock}
}

// Update patches a card's inventory row. When selling_price changes and the
// card is linked to a product, the product price and cost move in the same
// transaction.
func (u *CardInventoryUsecase) Update(ctx context.Context, actorUserID, detailID string, patch repo.CardDetailPatch) (model.PokemonCardDetail, error) {
	if patch.Empty() {
		return model.PokemonCardDetail{}, NewHTTPError(http.StatusBadRequest, "No fields to update")
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return model.PokemonCardDetail{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 0")
	}
	if (patch.SellingPrice != nil && patch.SellingPrice.IsNegative()) || (patch.PricePaid != nil && patch.PricePaid.IsNegative()) {
		return model.PokemonCardDetail{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}

	now := u.clock.Now()
	var updated model.PokemonCardDetail
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.CardDetails().FindByID(ctx, detailID)
		if isNotFound(err) {
			return NewHTTPError(http.StatusNotFound, "Card not found")
		}
		if err != nil {
			return err
		}

		updated, err = r.CardDetails().Update(ctx, detailID, patch, now)
		if err != nil {
			return err
		}

		if patch.SellingPrice != nil && updated.ProductID != nil {
			if err := r.Products().UpdatePricing(ctx, *updated.ProductID, *patch.SellingPrice, updated.PricePaid, now); err != nil {
				return err
			}
		}

		beforeJSON, _ := json.Marshal(before)
		afterJSON, _ := json.Marshal(updated)
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateCardInventory,
			ResourceType: model.AuditResourceCard,
			ResourceID:   detailID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    now,
		})
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.PokemonCardDetail{}, err
		}
		slog.ErrorContext(ctx, "update card inventory failed", "detail_id", detailID, "err", err)
		return model.PokemonCardDetail{}, NewHTTPError(http.StatusInternalServerError, "Failed to update card")
	}
	return updated, nil
}
