package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// OrderEmail is the data behind both the customer confirmation and the admin notice.
type OrderEmail struct {
	OrderID       string
	TransactionID string
	CustomerEmail string
	Items         []OrderEmailItem
	DisplayPrice  string
	PurchasedAt   time.Time
	NeedsReview   bool

	// ForAdmin switches the template to the internal notice.
	ForAdmin bool
}

type OrderEmailItem struct {
	Name     string
	Quantity int
}

// RenderOrderEmail builds the subject and HTML body for one recipient.
func RenderOrderEmail(data OrderEmail) (Message, error) {
	var buf bytes.Buffer
	if err := orderTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render order email: %w", err)
	}
	subject := "Your RecipeShop order " + data.OrderID
	if data.ForAdmin {
		subject = "New order " + data.OrderID
		if data.NeedsReview {
			subject = "[REVIEW] " + subject
		}
	}
	return Message{Subject: subject, HTML: buf.String()}, nil
}

var orderTmpl = template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Order {{.OrderID}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  {{if .ForAdmin}}
  <h2>New order received</h2>
  <p>Customer: {{.CustomerEmail}}<br>Transaction: {{.TransactionID}}</p>
  {{if .NeedsReview}}<p style="color: #c0392b;"><strong>Stock ran short for this order. Please review.</strong></p>{{end}}
  {{else}}
  <h2>Thanks for your purchase!</h2>
  <p>Your order <strong>{{.OrderID}}</strong> is confirmed.</p>
  {{end}}
  <table cellpadding="6">
    {{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td></tr>{{end}}
  </table>
  <p>Total paid: <strong>{{.DisplayPrice}}</strong></p>
  <p style="font-size: 12px; color: #666;">{{.PurchasedAt.Format "2 Jan 2006 15:04 MST"}}</p>
</body>
</html>
`))
