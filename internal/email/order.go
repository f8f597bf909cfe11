package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/dukerupert/cartsync/internal/domain"
)

// OrderMailer sends order confirmations through a Sender.
type OrderMailer struct {
	sender      Sender
	fromAddress string
	fromName    string
}

var _ domain.Notifier = (*OrderMailer)(nil)

// NewOrderMailer creates an order confirmation notifier.
func NewOrderMailer(sender Sender, fromAddress, fromName string) *OrderMailer {
	return &OrderMailer{sender: sender, fromAddress: fromAddress, fromName: fromName}
}

// SendOrderConfirmation mails the order summary to the customer.
func (m *OrderMailer) SendOrderConfirmation(ctx context.Context, to domain.Contact, summary domain.OrderSummary) error {
	if to.Email == "" {
		return domain.Invalid("email.order_confirmation", "Customer has no email address")
	}

	htmlBody, err := renderOrderConfirmation(to, summary)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation: %w", err)
	}

	msg := &Email{
		To:       []string{to.Email},
		Subject:  OrderConfirmationSubject(to, summary),
		HTMLBody: htmlBody,
		TextBody: plainText(htmlBody),
		Headers:  map[string]string{"X-Order-ID": summary.OrderID.String()},
	}
	if m.fromAddress != "" {
		msg.From = m.fromAddress
		if m.fromName != "" {
			msg.From = fmt.Sprintf("%s <%s>", m.fromName, m.fromAddress)
		}
	}

	if _, err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send order confirmation email: %w", err)
	}
	return nil
}

// OrderConfirmationSubject is "<email> order confirmation for <date>".
func OrderConfirmationSubject(to domain.Contact, summary domain.OrderSummary) string {
	return fmt.Sprintf("%s order confirmation for %s", to.Email, summary.CommittedAt.Format("2006-01-02"))
}

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Funcs(template.FuncMap{
	"money": formatMoney,
	"lineTotal": func(l domain.OrderSummaryLine) string {
		return formatMoney(l.Price * int64(l.Count))
	},
}).Parse(`<div class="email-content">
<h2>Thank you for your order{{if .Name}}, {{.Name}}{{end}}!</h2>
<p>Order {{.Summary.OrderID}} placed {{.Summary.CommittedAt.Format "2006-01-02 15:04"}}</p>
<div class="lines">
{{range .Summary.Lines}}<div>{{.ProductName}} / {{.ItemName}} x {{.Count}} @ {{money .Price}} = {{lineTotal .}}</div>
{{end}}</div>
<p><strong>Total: {{money .Summary.Total}}</strong></p>
</div>`))

func renderOrderConfirmation(to domain.Contact, summary domain.OrderSummary) (string, error) {
	var buf bytes.Buffer
	err := orderConfirmationTmpl.Execute(&buf, struct {
		Name    string
		Summary domain.OrderSummary
	}{Name: to.Name, Summary: summary})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatMoney(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
