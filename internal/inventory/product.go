// Package inventory implements the fridge product lifecycle and expiration tracking.
package inventory

import (
	"fmt"
	"strings"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
)

// Product is one tracked food item.
// The barcode and attributes are fixed at construction; only the used flag changes.
type Product struct {
	barcode        string
	name           string
	category       string
	expirationDate time.Time
	used           bool
}

// NewProduct creates a product from raw attributes.
// Returns ErrInvalidIdentifier for an empty barcode and ErrInvalidDate for an unparseable date.
func NewProduct(barcode, name, category, expirationDate string) (*Product, error) {
	if err := validateBarcode(barcode); err != nil {
		return nil, err
	}
	date, err := ParseDate(expirationDate)
	if err != nil {
		return nil, err
	}
	return newProduct(barcode, name, category, date), nil
}

// NewProductWithDate creates a product from an already typed expiration date.
func NewProductWithDate(barcode, name, category string, expirationDate time.Time) (*Product, error) {
	if err := validateBarcode(barcode); err != nil {
		return nil, err
	}
	if expirationDate.IsZero() {
		return nil, fmt.Errorf("zero date: %w", fridgeerrors.ErrInvalidDate)
	}
	return newProduct(barcode, name, category, Truncate(expirationDate)), nil
}

func newProduct(barcode, name, category string, date time.Time) *Product {
	return &Product{
		barcode:        strings.TrimSpace(barcode),
		name:           name,
		category:       category,
		expirationDate: date,
	}
}

func validateBarcode(barcode string) error {
	if strings.TrimSpace(barcode) == "" {
		return fmt.Errorf("empty barcode: %w", fridgeerrors.ErrInvalidIdentifier)
	}
	return nil
}

func (p *Product) Barcode() string           { return p.barcode }
func (p *Product) Name() string              { return p.name }
func (p *Product) Category() string          { return p.category }
func (p *Product) ExpirationDate() time.Time { return p.expirationDate }
func (p *Product) Used() bool                { return p.used }

// RemainingDays returns the signed number of days from asOf to the expiration date.
// Negative values mean the product has already expired.
func (p *Product) RemainingDays(asOf time.Time) int {
	return DaysBetween(asOf, p.expirationDate)
}

// MarkUsed flags the product as consumed or discarded. Calling it again has no effect.
func (p *Product) MarkUsed() {
	p.used = true
}

func (p *Product) String() string {
	return fmt.Sprintf("barcode: %s, name: %s, category: %s, expiration_date: %s, used: %t",
		p.barcode, p.name, p.category, FormatDate(p.expirationDate), p.used)
}
