package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

// カート1行（フロントのcamelCase）
type cartItemRequest struct {
	ProductID string          `json:"productId"`
	VariantID *string         `json:"variantId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     *string         `json:"image"`
	Size      *string         `json:"size"`
}

func toCartItems(in []cartItemRequest) []model.CartItem {
	out := make([]model.CartItem, 0, len(in))
	for _, it := range in {
		out = append(out, model.CartItem{
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
			Size:      it.Size,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
		})
	}
	return out
}

type CheckoutRequest struct {
	Total           decimal.Decimal   `json:"total"`
	Email           string            `json:"email"`
	Items           []cartItemRequest `json:"items"`
	FulfillmentType string            `json:"fulfillmentType"`
	ShippingAddress *model.Address    `json:"shippingAddress"`
	DiscountCode    string            `json:"discountCode"`
	DiscountAmount  decimal.Decimal   `json:"discountAmount"`
}

func (h *CheckoutHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.POST("/checkout", h.create, g.OptAuth)
}

func (h *CheckoutHandler) create(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//ゲストなら空
	customerID, _ := getUserIDFromContext(c)

	out, err := h.uc.CreatePaymentIntent(c.Request().Context(), usecase.CheckoutInput{
		Total:           req.Total,
		Email:           req.Email,
		Items:           toCartItems(req.Items),
		FulfillmentType: req.FulfillmentType,
		ShippingAddress: req.ShippingAddress,
		DiscountCode:    req.DiscountCode,
		DiscountAmount:  req.DiscountAmount,
		CustomerID:      customerID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
