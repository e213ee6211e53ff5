package mailtmpl

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
)

func TestTicketReply_EscapesAndKeepsLineBreaks(t *testing.T) {
	r, err := TicketReply("Ann", "Sizing", "line one\n<script>x</script>")
	require.NoError(t, err)
	require.Equal(t, "Re: Sizing | Secured Tampa", r.Subject)
	require.Contains(t, r.HTML, "Hi Ann,")
	require.Contains(t, r.HTML, "line one<br/>&lt;script&gt;")
	require.NotContains(t, r.HTML, "<script>")
}

func TestTicketNotification(t *testing.T) {
	r, err := TicketNotification("Ann", "ann@example.com", "Late order", "shipping")
	require.NoError(t, err)
	require.Equal(t, "New Ticket: Late order", r.Subject)
	require.Contains(t, r.HTML, "ann@example.com")
	require.Contains(t, r.HTML, StoreURL+"/admin/tickets")
}

func TestOrderConfirmation(t *testing.T) {
	r, err := OrderConfirmation(model.Order{
		OrderNumber:     "SEC-250101-0042",
		Total:           decimal.RequireFromString("107.5"),
		FulfillmentType: model.FulfillmentPickup,
	})
	require.NoError(t, err)
	require.Contains(t, r.Subject, "SEC-250101-0042")
	require.Contains(t, r.HTML, "$107.50")
	require.Contains(t, r.HTML, "ready for pickup")
}

func TestAbandonedCart_Stages(t *testing.T) {
	size := "10.5"
	items := []model.CartItem{
		{Name: "Jordan 1", Price: decimal.NewFromInt(200), Quantity: 1, Size: &size},
		{Name: "Hoodie", Price: decimal.NewFromInt(50), Quantity: 2},
	}
	total := decimal.NewFromInt(300)

	r1, err := AbandonedCart(1, items, total, "")
	require.NoError(t, err)
	require.Contains(t, r1.Subject, "You left something behind")
	require.Contains(t, r1.HTML, "Size: 10.5")
	require.Contains(t, r1.HTML, "$100.00")

	r2, err := AbandonedCart(2, items, total, "")
	require.NoError(t, err)
	require.Contains(t, r2.HTML, "Jordan 1, Hoodie")

	r3, err := AbandonedCart(3, items, total, "SECURED10-ABC234")
	require.NoError(t, err)
	require.Contains(t, r3.Subject, "10% off")
	require.Contains(t, r3.HTML, "SECURED10-ABC234")
	require.Contains(t, r3.HTML, "$270.00")

	_, err = AbandonedCart(4, items, total, "")
	require.Error(t, err)
}
