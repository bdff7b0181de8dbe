// Package foodapi looks up product attributes by barcode in the food-safety open API.
package foodapi

import (
	"context"
	"strings"
)

// Lookuper resolves a barcode to product attributes.
type Lookuper interface {
	// Lookup returns ErrBarcodeNotFound when the database has no record
	// and ErrLookupUnavailable when the API cannot answer.
	Lookup(ctx context.Context, barcode string) (*Record, error)
}

// Record holds the product attributes returned for a barcode.
type Record struct {
	Barcode        string `json:"barcode"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Manufacturer   string `json:"manufacturer"`
	ShelfLife      string `json:"shelf_life"`
	ExpirationDate string `json:"expiration_date,omitempty"`
}

// Storage is the way a product should be kept.
type Storage string

const (
	StorageFrozen       Storage = "frozen"
	StorageRefrigerated Storage = "refrigerated"
	StorageRoom         Storage = "room"
)

var (
	frozenMarkers       = []string{"냉동", "frozen"}
	refrigeratedMarkers = []string{"냉장", "refrigerat", "chilled"}
)

// ClassifyStorage derives the storage from a free-text category.
// Frozen markers take precedence over refrigerated ones.
func ClassifyStorage(category string) Storage {
	c := strings.ToLower(category)
	if containsAny(c, frozenMarkers) {
		return StorageFrozen
	}
	if containsAny(c, refrigeratedMarkers) {
		return StorageRefrigerated
	}
	return StorageRoom
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
