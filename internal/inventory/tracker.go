package inventory

import (
	"fmt"
	"slices"
	"strings"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
)

// DefaultExpiringDays is the default upper bound on remaining days for expiring-soon products.
const DefaultExpiringDays = 7

// Tracker owns the products of one household session in insertion order.
// It is not safe for concurrent use: callers serialize access per Tracker.
type Tracker struct {
	products []*Product
	index    map[string]int
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		index: make(map[string]int),
	}
}

// Add inserts a product.
// Returns ErrDuplicateProduct if a product with the same barcode is already tracked.
func (t *Tracker) Add(product *Product) error {
	if product == nil {
		return fmt.Errorf("nil product: %w", fridgeerrors.ErrInvalidIdentifier)
	}
	if _, exists := t.index[product.barcode]; exists {
		return fmt.Errorf("barcode %s: %w", product.barcode, fridgeerrors.ErrDuplicateProduct)
	}
	t.index[product.barcode] = len(t.products)
	t.products = append(t.products, product)
	return nil
}

// Remove deletes the product with the given barcode. Absent barcodes are ignored.
func (t *Tracker) Remove(barcode string) {
	barcode = strings.TrimSpace(barcode)
	i, ok := t.index[barcode]
	if !ok {
		return
	}
	t.products = slices.Delete(t.products, i, i+1)
	delete(t.index, barcode)
	for j := i; j < len(t.products); j++ {
		t.index[t.products[j].barcode] = j
	}
}

// MarkAsUsed marks the product with the given barcode as used. Absent barcodes are ignored.
func (t *Tracker) MarkAsUsed(barcode string) {
	if p, ok := t.Get(barcode); ok {
		p.MarkUsed()
	}
}

// Get returns the product with the given barcode.
// Barcodes are matched after trimming, the same way NewProduct stores them.
func (t *Tracker) Get(barcode string) (*Product, bool) {
	i, ok := t.index[strings.TrimSpace(barcode)]
	if !ok {
		return nil, false
	}
	return t.products[i], true
}

// Expiring returns the unused products with at most thresholdDays remaining as of asOf,
// in insertion order. Already expired products are included.
func (t *Tracker) Expiring(thresholdDays int, asOf time.Time) []*Product {
	expiring := make([]*Product, 0)
	for _, p := range t.products {
		if !p.used && p.RemainingDays(asOf) <= thresholdDays {
			expiring = append(expiring, p)
		}
	}
	return expiring
}

// List returns all tracked products in insertion order.
func (t *Tracker) List() []*Product {
	return slices.Clone(t.products)
}

// Len returns the number of tracked products.
func (t *Tracker) Len() int {
	return len(t.products)
}
