package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

func newCardInventoryFixture() (*CardInventoryUsecase, *CardDetailRepoMock, *ProductRepoMock, *AuditRepoMock) {
	details := new(CardDetailRepoMock)
	products := new(ProductRepoMock)
	audits := new(AuditRepoMock)
	tx := newTx(&TxReposMock{cardDetails: details, products: products, auditLogs: audits})
	return NewCardInventoryUsecase(tx, fixedClock{t: testNow}), details, products, audits
}

func TestCardInventoryUpdate_SellingPriceMovesProduct(t *testing.T) {
	uc, details, products, audits := newCardInventoryFixture()
	productID := "p-1"
	price := dec("45.00")
	patch := repo.CardDetailPatch{SellingPrice: &price}
	paid := decimal.NewNullDecimal(dec("20"))

	details.On("FindByID", mock.Anything, "cd-1").Return(model.PokemonCardDetail{ID: "cd-1", ProductID: &productID, PricePaid: paid}, nil)
	details.On("Update", mock.Anything, "cd-1", patch, testNow).
		Return(model.PokemonCardDetail{ID: "cd-1", ProductID: &productID, PricePaid: paid, SellingPrice: decimal.NewNullDecimal(price)}, nil)
	products.On("UpdatePricing", mock.Anything, "p-1", price, paid, testNow).Return(nil)
	audits.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateCardInventory && l.ResourceID == "cd-1" && l.ActorUserID == "admin-1"
	})).Return(nil)

	got, err := uc.Update(context.Background(), "admin-1", "cd-1", patch)
	require.NoError(t, err)
	assert.True(t, got.SellingPrice.Decimal.Equal(price))
	details.AssertExpectations(t)
	products.AssertExpectations(t)
	audits.AssertExpectations(t)
}

func TestCardInventoryUpdate_QuantityOnlyLeavesProduct(t *testing.T) {
	uc, details, products, audits := newCardInventoryFixture()
	productID := "p-1"
	qty := 3
	patch := repo.CardDetailPatch{Quantity: &qty}

	details.On("FindByID", mock.Anything, "cd-1").Return(model.PokemonCardDetail{ID: "cd-1", ProductID: &productID, Quantity: 1}, nil)
	details.On("Update", mock.Anything, "cd-1", patch, testNow).Return(model.PokemonCardDetail{ID: "cd-1", ProductID: &productID, Quantity: 3}, nil)
	audits.On("Create", mock.Anything, mock.Anything).Return(nil)

	got, err := uc.Update(context.Background(), "admin-1", "cd-1", patch)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	products.AssertNotCalled(t, "UpdatePricing", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCardInventoryUpdate_ProductFailureFailsWhole(t *testing.T) {
	uc, details, products, audits := newCardInventoryFixture()
	productID := "p-1"
	price := dec("10")
	patch := repo.CardDetailPatch{SellingPrice: &price}

	details.On("FindByID", mock.Anything, "cd-1").Return(model.PokemonCardDetail{ID: "cd-1", ProductID: &productID}, nil)
	details.On("Update", mock.Anything, "cd-1", patch, testNow).Return(model.PokemonCardDetail{ID: "cd-1", ProductID: &productID}, nil)
	products.On("UpdatePricing", mock.Anything, "p-1", price, mock.Anything, testNow).Return(errors.New("db down"))

	_, err := uc.Update(context.Background(), "admin-1", "cd-1", patch)
	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	audits.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCardInventoryUpdate_Validation(t *testing.T) {
	neg := -1
	negPrice := dec("-1")

	tests := []struct {
		name  string
		patch repo.CardDetailPatch
	}{
		{"empty", repo.CardDetailPatch{}},
		{"negative quantity", repo.CardDetailPatch{Quantity: &neg}},
		{"negative price", repo.CardDetailPatch{SellingPrice: &negPrice}},
		{"negative paid", repo.CardDetailPatch{PricePaid: &negPrice}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, details, _, _ := newCardInventoryFixture()
			_, err := uc.Update(context.Background(), "admin-1", "cd-1", tt.patch)
			he, ok := AsHTTPError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			details.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		})
	}

	t.Run("not found", func(t *testing.T) {
		uc, details, _, _ := newCardInventoryFixture()
		qty := 1
		details.On("FindByID", mock.Anything, "cd-9").Return(nil, repo.ErrNotFound)

		_, err := uc.Update(context.Background(), "admin-1", "cd-9", repo.CardDetailPatch{Quantity: &qty})
		he, ok := AsHTTPError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Status)
		assert.Equal(t, "Card not found", he.Message)
	})
}
