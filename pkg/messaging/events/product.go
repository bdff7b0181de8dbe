// Package events contains the event payloads exchanged over the message bus.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/fridgekeeper/pkg/messaging"
	"github.com/google/uuid"
)

// ProductExpiringEvent announces that a tracked product is about to expire or already has.
type ProductExpiringEvent struct {
	EventID        uuid.UUID `json:"event_id"`
	OwnerID        string    `json:"owner_id"`
	Barcode        string    `json:"barcode"`
	Name           string    `json:"name"`
	ExpirationDate string    `json:"expiration_date"`
	RemainingDays  int       `json:"remaining_days"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

func (e ProductExpiringEvent) Subject() string {
	return messaging.ProductsExpiringSubject
}

func (e ProductExpiringEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
