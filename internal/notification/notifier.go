// Package notification delivers expiring-product messages.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/abgdnv/fridgekeeper/pkg/messaging"
	"github.com/abgdnv/fridgekeeper/pkg/messaging/events"
	"github.com/google/uuid"
)

// Message tells an owner that one product expires soon.
type Message struct {
	Owner          uuid.UUID
	Barcode        string
	Name           string
	ExpirationDate time.Time
	RemainingDays  int
	Text           string
}

// NewMessage builds the message for product as seen on asOf.
func NewMessage(owner uuid.UUID, product *inventory.Product, asOf time.Time) Message {
	remaining := product.RemainingDays(asOf)
	return Message{
		Owner:          owner,
		Barcode:        product.Barcode(),
		Name:           product.Name(),
		ExpirationDate: product.ExpirationDate(),
		RemainingDays:  remaining,
		Text:           Text(product.Name(), product.ExpirationDate(), remaining),
	}
}

// Text renders the human-readable notification line.
func Text(name string, expirationDate time.Time, remainingDays int) string {
	var when string
	switch {
	case remainingDays == 0:
		when = "today"
	case remainingDays == 1:
		when = "in 1 day"
	case remainingDays > 1:
		when = fmt.Sprintf("in %d days", remainingDays)
	case remainingDays == -1:
		when = "1 day ago"
	default:
		when = fmt.Sprintf("%d days ago", -remainingDays)
	}
	return fmt.Sprintf("%s expires on %s (%s)", name, expirationDate.Format(time.DateOnly), when)
}

// Notifier delivers one message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*EventNotifier)(nil)
)

// LogNotifier writes every message as a warning.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.WarnContext(ctx, msg.Text,
		slog.String("owner_id", msg.Owner.String()),
		slog.String("barcode", msg.Barcode),
		slog.Int("remaining_days", msg.RemainingDays),
	)
	return nil
}

// EventNotifier publishes every message as a ProductExpiringEvent.
type EventNotifier struct {
	publisher messaging.Publisher
	now       func() time.Time
}

func NewEventNotifier(publisher messaging.Publisher) *EventNotifier {
	return &EventNotifier{publisher: publisher, now: time.Now}
}

func (n *EventNotifier) Notify(ctx context.Context, msg Message) error {
	event := events.ProductExpiringEvent{
		EventID:        uuid.New(),
		OwnerID:        msg.Owner.String(),
		Barcode:        msg.Barcode,
		Name:           msg.Name,
		ExpirationDate: inventory.FormatDate(msg.ExpirationDate),
		RemainingDays:  msg.RemainingDays,
		Text:           msg.Text,
		CreatedAt:      n.now().UTC(),
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish expiring event for %s: %w", msg.Barcode, err)
	}
	return nil
}

// fromEvent rebuilds a Message from a received event.
func fromEvent(event events.ProductExpiringEvent) (Message, error) {
	owner, err := uuid.Parse(event.OwnerID)
	if err != nil {
		return Message{}, fmt.Errorf("invalid owner id %q: %w", event.OwnerID, err)
	}
	date, err := inventory.ParseDate(event.ExpirationDate)
	if err != nil {
		return Message{}, err
	}
	text := event.Text
	if text == "" {
		text = Text(event.Name, date, event.RemainingDays)
	}
	return Message{
		Owner:          owner,
		Barcode:        event.Barcode,
		Name:           event.Name,
		ExpirationDate: date,
		RemainingDays:  event.RemainingDays,
		Text:           text,
	}, nil
}
