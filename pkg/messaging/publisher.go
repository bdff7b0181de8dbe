// Package messaging defines the event publishing contract.
package messaging

import (
	"context"
)

const (
	// ProductsStream is the JetStream stream holding fridge product events.
	ProductsStream = "FRIDGE_PRODUCTS"
	// ProductsExpiringSubject carries one event per product close to its expiration date.
	ProductsExpiringSubject = "fridge.products.expiring"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
