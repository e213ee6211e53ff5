// Package mailtmpl renders the storefront's transactional emails.
package mailtmpl

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
)

const (
	StoreName = "Secured Tampa"
	StoreURL  = "https://securedtampa.com"
)

//go:embed templates/*.html
var files embed.FS

var tmpl = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"lines": func(s string) template.HTML {
		// 本文はエスケープしてから改行だけ<br/>にする
		return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br/>"))
	},
}).ParseFS(files, "templates/*.html"))

type Rendered struct {
	Subject string
	HTML    string
}

func render(name, subject string, data any) (Rendered, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return Rendered{}, errors.Wrapf(err, "render %s", name)
	}
	return Rendered{Subject: subject, HTML: buf.String()}, nil
}

func TicketConfirmation(name, subject string) (Rendered, error) {
	return render("ticket_confirmation", "Ticket Received: "+subject+" | "+StoreName, map[string]any{
		"Title": "We received your request", "Name": name, "Subject": subject,
	})
}

func TicketNotification(name, email, subject, category string) (Rendered, error) {
	return render("ticket_notification", "New Ticket: "+subject, map[string]any{
		"Title": "New Support Ticket", "Name": name, "Email": email,
		"Subject": subject, "Category": category, "AdminURL": StoreURL + "/admin/tickets",
	})
}

func TicketReply(name, subject, reply string) (Rendered, error) {
	return render("ticket_reply", "Re: "+subject+" | "+StoreName, map[string]any{
		"Title": "Re: " + subject, "Name": name, "Reply": reply,
	})
}

func ContactNotification(name, email, subject, message string) (Rendered, error) {
	return render("contact_notification", "Contact Form: "+subject, map[string]any{
		"Title": "New Contact Message", "Name": name, "Email": email,
		"Subject": subject, "Message": message,
	})
}

func OrderConfirmation(o model.Order) (Rendered, error) {
	return render("order_confirmation", "Order Confirmed #"+o.OrderNumber+" | "+StoreName, map[string]any{
		"Title":  "Thanks for your order",
		"Number": o.OrderNumber,
		"Total":  o.Total,
		"Pickup": o.FulfillmentType == model.FulfillmentPickup,
	})
}

type cartView struct {
	Title      string
	Items      []model.CartItem
	Names      string
	Total      decimal.Decimal
	Discounted decimal.Decimal
	Code       string
	CartURL    string
}

func newCartView(title string, items []model.CartItem, total decimal.Decimal) cartView {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return cartView{
		Title:   title,
		Items:   items,
		Names:   strings.Join(names, ", "),
		Total:   total,
		CartURL: StoreURL + "/cart",
	}
}

// AbandonedCart renders recovery email 1, 2 or 3. Stage 3 carries the discount code.
func AbandonedCart(stage int, items []model.CartItem, total decimal.Decimal, code string) (Rendered, error) {
	switch stage {
	case 1:
		return render("cart_reminder", "You left something behind | "+StoreName,
			newCartView("Still thinking it over?", items, total))
	case 2:
		return render("cart_urgency", "Your items are selling fast | "+StoreName,
			newCartView("Don't miss out", items, total))
	case 3:
		v := newCartView("Here's 10% off to seal the deal", items, total)
		v.Code = code
		v.Discounted = total.Mul(decimal.RequireFromString("0.9")).Round(2)
		return render("cart_last_chance", "Last chance: 10% off your cart | "+StoreName, v)
	}
	return Rendered{}, errors.Errorf("unknown recovery stage %d", stage)
}
