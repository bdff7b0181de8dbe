// Package errors provides custom error types for fridge inventory operations.
package errors

import "errors"

var ErrInvalidIdentifier = errors.New("invalid product identifier")
var ErrInvalidDate = errors.New("invalid expiration date")
var ErrDuplicateProduct = errors.New("product with this barcode already exists")
var ErrProductNotFound = errors.New("product not found")

var ErrBarcodeNotFound = errors.New("no product information for barcode")
var ErrLookupUnavailable = errors.New("product lookup service unavailable")

var ErrRecipeUnavailable = errors.New("recipe service unavailable")
var ErrNoIngredients = errors.New("no ingredients to recommend recipes for")
