// Package events publishes order lifecycle events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dukerupert/cartsync/internal/domain"
)

// DefaultOrderSubject is where order-committed events go unless configured.
const DefaultOrderSubject = "cartsync.order.committed"

// Publisher is the part of *nats.Conn the event notifier needs.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// OrderCommitted is the event payload.
type OrderCommitted struct {
	OrderID     string      `json:"orderId"`
	CustomerID  int64       `json:"customerId"`
	Email       string      `json:"email"`
	Total       int64       `json:"total"`
	CommittedAt time.Time   `json:"committedAt"`
	Lines       []EventLine `json:"lines"`
}

// EventLine is one ordered item in an OrderCommitted event.
type EventLine struct {
	ProductName string `json:"productName"`
	ItemName    string `json:"itemName"`
	Price       int64  `json:"price"`
	Count       int    `json:"count"`
}

// OrderEvents publishes an OrderCommitted event per confirmed order.
type OrderEvents struct {
	pub     Publisher
	subject string
}

var _ domain.Notifier = (*OrderEvents)(nil)

// Connect dials NATS with reconnect handling logged through logger.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return conn, nil
}

// NewOrderEvents creates an event notifier. An empty subject uses DefaultOrderSubject.
func NewOrderEvents(pub Publisher, subject string) *OrderEvents {
	if subject == "" {
		subject = DefaultOrderSubject
	}
	return &OrderEvents{pub: pub, subject: subject}
}

// SendOrderConfirmation publishes the order. The order id doubles as the
// JetStream dedupe id.
func (e *OrderEvents) SendOrderConfirmation(_ context.Context, to domain.Contact, summary domain.OrderSummary) error {
	event := OrderCommitted{
		OrderID:     summary.OrderID.String(),
		CustomerID:  summary.CustomerID,
		Email:       to.Email,
		Total:       summary.Total,
		CommittedAt: summary.CommittedAt,
		Lines:       make([]EventLine, 0, len(summary.Lines)),
	}
	for _, l := range summary.Lines {
		event.Lines = append(event.Lines, EventLine{
			ProductName: l.ProductName,
			ItemName:    l.ItemName,
			Price:       l.Price,
			Count:       l.Count,
		})
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := nats.NewMsg(e.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.OrderID)
	msg.Header.Set("Content-Type", "application/json")

	if err := e.pub.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}
