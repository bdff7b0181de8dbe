// Package rest provides HTTP handlers for fridge inventory operations.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/abgdnv/fridgekeeper/internal/service"
	"github.com/abgdnv/fridgekeeper/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxThresholdDays = 3650

type Handler struct {
	service      service.InventoryService
	validate     *validator.Validate
	location     *time.Location
	expiringDays int
	now          func() time.Time
	logger       *slog.Logger
}

// NewHandler creates a new Handler. Dates without an explicit as_of are evaluated
// as today in location; expiringDays is the default threshold.
func NewHandler(svc service.InventoryService, location *time.Location, expiringDays int, logger *slog.Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		service:      svc,
		validate:     validator.New(),
		location:     location,
		expiringDays: expiringDays,
		now:          time.Now,
		logger:       logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the fridge service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/fridge", func(r chi.Router) {
		r.Use(web.AuthMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.FindAll)
			r.Post("/", h.Create)
			r.Post("/scan", h.Scan)
			r.Get("/expiring", h.Expiring)

			r.Route("/{barcode}", func(r chi.Router) {
				r.Get("/", h.FindByBarcode)
				r.Delete("/", h.Remove)
				r.Put("/used", h.MarkUsed)
			})
		})
		r.Post("/notifications", h.NotifyExpiring)
		r.Post("/recipes", h.RecommendRecipes)
		r.Get("/lookup/{barcode}", h.Lookup)
		r.Post("/receipts/parse", h.ParseReceipt)
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindAll lists the owner's products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}
	list, err := h.service.FindAll(r.Context(), owner, asOf)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// Create registers a product from its attributes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.ProductCreateDto
	if !web.DecodeAndValidate(w, r, h.logger, h.validate, &dto) {
		return
	}
	created, err := h.service.Create(r.Context(), owner, dto, h.today())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "barcode", created.Barcode)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Scan registers a product from a barcode lookup.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.ScanDto
	if !web.DecodeAndValidate(w, r, h.logger, h.validate, &dto) {
		return
	}
	created, err := h.service.Scan(r.Context(), owner, dto, h.today())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to register scanned product")
		return
	}
	h.logger.InfoContext(r.Context(), "Scanned product created successfully", "barcode", created.Barcode)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

func (h *Handler) FindByBarcode(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return
	}
	barcode := chi.URLParam(r, "barcode")
	found, err := h.service.FindByBarcode(r.Context(), owner, barcode, asOf)
	if err != nil {
		h.respondServiceError(w, r, err, fmt.Sprintf("Failed to retrieve product %s", barcode))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Remove deletes a product. Unknown barcodes are accepted.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	barcode := chi.URLParam(r, "barcode")
	if err := h.service.Remove(r.Context(), owner, barcode); err != nil {
		h.respondServiceError(w, r, err, fmt.Sprintf("Failed to delete product %s", barcode))
		return
	}
	h.logger.InfoContext(r.Context(), "Product removed", "barcode", barcode)
	w.WriteHeader(http.StatusNoContent)
}

// MarkUsed flags a product as used. Unknown barcodes are accepted.
func (h *Handler) MarkUsed(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	barcode := chi.URLParam(r, "barcode")
	if err := h.service.MarkUsed(r.Context(), owner, barcode); err != nil {
		h.respondServiceError(w, r, err, fmt.Sprintf("Failed to mark product %s as used", barcode))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Expiring(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	days, asOf, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	list, err := h.service.Expiring(r.Context(), owner, days, asOf)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch expiring products")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// NotifyExpiring sends a notification per expiring product.
func (h *Handler) NotifyExpiring(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	days, asOf, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	sent, err := h.service.NotifyExpiring(r.Context(), owner, days, asOf)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to send notifications")
		return
	}
	h.logger.InfoContext(r.Context(), "Notifications sent", "sent", sent)
	web.RespondJSON(w, h.logger, http.StatusOK, service.NotificationResultDto{Sent: sent})
}

func (h *Handler) RecommendRecipes(w http.ResponseWriter, r *http.Request) {
	owner, ok := web.GetUserID(w, r, h.logger)
	if !ok {
		return
	}
	var dto service.RecipeRequestDto
	if !web.DecodeAndValidate(w, r, h.logger, h.validate, &dto) {
		return
	}
	recipe, err := h.service.RecommendRecipes(r.Context(), owner, dto, h.today())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to recommend recipes")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, recipe)
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	record, err := h.service.Lookup(r.Context(), barcode)
	if err != nil {
		h.respondServiceError(w, r, err, fmt.Sprintf("Failed to look up barcode %s", barcode))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, record)
}

// ParseReceipt extracts candidate product names from receipt text.
func (h *Handler) ParseReceipt(w http.ResponseWriter, r *http.Request) {
	var dto service.ReceiptParseDto
	if !web.DecodeAndValidate(w, r, h.logger, h.validate, &dto) {
		return
	}
	names := service.ExtractProductNames(dto.Text, dto.Stopwords)
	web.RespondJSON(w, h.logger, http.StatusOK, service.ReceiptNamesDto{Names: names})
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// today is the current calendar date in the handler's location.
func (h *Handler) today() time.Time {
	return inventory.Truncate(h.now().In(h.location))
}

// parseAsOf reads the as_of query parameter, defaulting to today.
func (h *Handler) parseAsOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	value := r.URL.Query().Get("as_of")
	if value == "" {
		return h.today(), true
	}
	asOf, err := inventory.ParseDate(value)
	if err != nil {
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Invalid as_of date: %s", value))
		return time.Time{}, false
	}
	return asOf, true
}

func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (int, time.Time, bool) {
	days, ok := web.ParseOptionalInt(r, w, h.logger, "days", h.expiringDays, web.Between(-maxThresholdDays, maxThresholdDays))
	if !ok {
		return 0, time.Time{}, false
	}
	asOf, ok := h.parseAsOf(w, r)
	if !ok {
		return 0, time.Time{}, false
	}
	return days, asOf, true
}

// respondServiceError maps service errors to HTTP status codes.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var status int
	switch {
	case errors.Is(err, fridgeerrors.ErrInvalidIdentifier),
		errors.Is(err, fridgeerrors.ErrInvalidDate),
		errors.Is(err, fridgeerrors.ErrNoIngredients):
		status = http.StatusBadRequest
	case errors.Is(err, fridgeerrors.ErrProductNotFound),
		errors.Is(err, fridgeerrors.ErrBarcodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fridgeerrors.ErrDuplicateProduct):
		status = http.StatusConflict
	case errors.Is(err, fridgeerrors.ErrRecipeUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, fridgeerrors.ErrLookupUnavailable):
		status = http.StatusServiceUnavailable
	default:
		h.logger.ErrorContext(r.Context(), fallback, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fallback)
		return
	}
	h.logger.WarnContext(r.Context(), "Request failed", "status", status, "error", err)
	web.RespondError(w, h.logger, status, err.Error())
}
