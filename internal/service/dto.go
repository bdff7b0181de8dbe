package service

import (
	"time"

	"github.com/abgdnv/fridgekeeper/internal/foodapi"
	"github.com/abgdnv/fridgekeeper/internal/inventory"
)

// ProductCreateDto represents the data transfer object for registering a product.
type ProductCreateDto struct {
	Barcode        string `json:"barcode"         validate:"required,max=64"`
	Name           string `json:"name"            validate:"required,max=200"`
	Category       string `json:"category"        validate:"max=200"`
	ExpirationDate string `json:"expiration_date" validate:"required"`
}

// ScanDto registers a product from its barcode. ExpirationDate overrides the looked-up one.
type ScanDto struct {
	Barcode        string `json:"barcode"         validate:"required,max=64"`
	ExpirationDate string `json:"expiration_date" validate:"omitempty,max=10"`
}

// ProductDto represents the data transfer object for a product as seen on a given day.
type ProductDto struct {
	Barcode        string          `json:"barcode"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	ExpirationDate string          `json:"expiration_date"`
	RemainingDays  int             `json:"remaining_days"`
	Used           bool            `json:"used"`
	Storage        foodapi.Storage `json:"storage"`
}

// RecipeRequestDto asks for recipes for one product or a plan over several days.
type RecipeRequestDto struct {
	ProductName string            `json:"product_name" validate:"max=200"`
	Ingredients []string          `json:"ingredients"  validate:"max=50,dive,max=100"`
	Preferences map[string]string `json:"preferences"  validate:"max=20"`
	Days        int               `json:"days"         validate:"omitempty,min=1,max=14"`
}

type RecipeDto struct {
	Recommendation string `json:"recommendation"`
}

// LookupDto represents the food database record of a barcode.
type LookupDto struct {
	Barcode        string          `json:"barcode"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Manufacturer   string          `json:"manufacturer"`
	ShelfLife      string          `json:"shelf_life"`
	ExpirationDate string          `json:"expiration_date,omitempty"`
	Storage        foodapi.Storage `json:"storage"`
}

type ReceiptParseDto struct {
	Text      string   `json:"text"      validate:"required,max=20000"`
	Stopwords []string `json:"stopwords" validate:"max=100"`
}

type ReceiptNamesDto struct {
	Names []string `json:"names"`
}

// NotificationResultDto reports how many notifications were delivered.
type NotificationResultDto struct {
	Sent int `json:"sent"`
}

func toDto(product *inventory.Product, asOf time.Time) ProductDto {
	return ProductDto{
		Barcode:        product.Barcode(),
		Name:           product.Name(),
		Category:       product.Category(),
		ExpirationDate: inventory.FormatDate(product.ExpirationDate()),
		RemainingDays:  product.RemainingDays(asOf),
		Used:           product.Used(),
		Storage:        foodapi.ClassifyStorage(product.Category()),
	}
}

func toDtos(products []*inventory.Product, asOf time.Time) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i, p := range products {
		dtos[i] = toDto(p, asOf)
	}
	return dtos
}

func toLookupDto(record *foodapi.Record) *LookupDto {
	return &LookupDto{
		Barcode:        record.Barcode,
		Name:           record.Name,
		Category:       record.Category,
		Manufacturer:   record.Manufacturer,
		ShelfLife:      record.ShelfLife,
		ExpirationDate: record.ExpirationDate,
		Storage:        foodapi.ClassifyStorage(record.Category),
	}
}
