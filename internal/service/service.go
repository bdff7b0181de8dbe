// Package service provides the fridge inventory business logic over per-owner sessions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/internal/foodapi"
	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/abgdnv/fridgekeeper/internal/notification"
	"github.com/abgdnv/fridgekeeper/internal/recipe"
	"github.com/abgdnv/fridgekeeper/internal/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InventoryService defines the fridge operations of one household owner.
type InventoryService interface {
	// Create registers a product.
	// Returns ErrInvalidIdentifier or ErrInvalidDate for bad input and ErrDuplicateProduct if the barcode is taken.
	Create(ctx context.Context, owner uuid.UUID, dto ProductCreateDto, asOf time.Time) (*ProductDto, error)

	// Scan looks the barcode up in the food database and registers the result.
	// Returns ErrBarcodeNotFound or ErrLookupUnavailable when the lookup fails.
	Scan(ctx context.Context, owner uuid.UUID, dto ScanDto, asOf time.Time) (*ProductDto, error)

	// FindByBarcode returns one product.
	// Returns ErrProductNotFound if the owner has no product with the barcode.
	FindByBarcode(ctx context.Context, owner uuid.UUID, barcode string, asOf time.Time) (*ProductDto, error)

	// FindAll returns all products in insertion order.
	FindAll(ctx context.Context, owner uuid.UUID, asOf time.Time) ([]ProductDto, error)

	// Remove deletes a product. Absent barcodes are ignored.
	Remove(ctx context.Context, owner uuid.UUID, barcode string) error

	// MarkUsed flags a product as used. Absent barcodes are ignored.
	MarkUsed(ctx context.Context, owner uuid.UUID, barcode string) error

	// Expiring returns the unused products with at most days remaining as of asOf.
	Expiring(ctx context.Context, owner uuid.UUID, days int, asOf time.Time) ([]ProductDto, error)

	// NotifyExpiring sends one notification per expiring product and returns how many were delivered.
	NotifyExpiring(ctx context.Context, owner uuid.UUID, days int, asOf time.Time) (int, error)

	// RecommendRecipes asks the recipe collaborator for suggestions.
	// Without ingredients the names of the owner's expiring products are used.
	RecommendRecipes(ctx context.Context, owner uuid.UUID, dto RecipeRequestDto, asOf time.Time) (*RecipeDto, error)

	// Lookup returns the food database record for a barcode.
	Lookup(ctx context.Context, barcode string) (*LookupDto, error)
}

var _ InventoryService = (*Service)(nil)

// session is one owner's tracker. Every access to the tracker holds mu.
type session struct {
	mu      sync.Mutex
	tracker *inventory.Tracker
	loaded  bool
}

// Service implements InventoryService. Trackers are hydrated lazily from the store
// and every mutation is written through to it.
type Service struct {
	store        store.ProductStore
	lookup       foodapi.Lookuper
	notifier     notification.Notifier
	recommender  recipe.Recommender
	expiringDays int
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	registered metric.Int64Counter
	notified   metric.Int64Counter
}

// Dependencies are the collaborators of a Service. Recommender may be nil when recipes are disabled.
type Dependencies struct {
	Store        store.ProductStore
	Lookup       foodapi.Lookuper
	Notifier     notification.Notifier
	Recommender  recipe.Recommender
	ExpiringDays int
	Meter        metric.Meter
	Logger       *slog.Logger
}

// NewService creates a new instance of Service with the provided collaborators.
func NewService(deps Dependencies) (*Service, error) {
	registered, err := deps.Meter.Int64Counter("fridge_products_registered",
		metric.WithDescription("Number of products registered in fridges"))
	if err != nil {
		return nil, fmt.Errorf("failed to create registered counter: %w", err)
	}
	notified, err := deps.Meter.Int64Counter("fridge_notifications_sent",
		metric.WithDescription("Number of expiring-product notifications delivered"))
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications counter: %w", err)
	}
	expiringDays := deps.ExpiringDays
	if expiringDays <= 0 {
		expiringDays = inventory.DefaultExpiringDays
	}
	return &Service{
		store:        deps.Store,
		lookup:       deps.Lookup,
		notifier:     deps.Notifier,
		recommender:  deps.Recommender,
		expiringDays: expiringDays,
		logger:       deps.Logger.With("component", "service"),
		sessions:     make(map[uuid.UUID]*session),
		registered:   registered,
		notified:     notified,
	}, nil
}

// withTracker runs fn with the owner's tracker locked, loading it from the store on first use.
func (s *Service) withTracker(ctx context.Context, owner uuid.UUID, fn func(t *inventory.Tracker) error) error {
	s.mu.Lock()
	sess, ok := s.sessions[owner]
	if !ok {
		sess = &session{tracker: inventory.NewTracker()}
		s.sessions[owner] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.loaded {
		products, err := s.store.FindAll(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to load products of owner %s: %w", owner, err)
		}
		tracker := inventory.NewTracker()
		for _, p := range products {
			if err := tracker.Add(p); err != nil {
				return fmt.Errorf("failed to load products of owner %s: %w", owner, err)
			}
		}
		sess.tracker = tracker
		sess.loaded = true
		s.logger.DebugContext(ctx, "Session loaded", "products", len(products))
	}
	return fn(sess.tracker)
}

func (s *Service) Create(ctx context.Context, owner uuid.UUID, dto ProductCreateDto, asOf time.Time) (*ProductDto, error) {
	product, err := inventory.NewProduct(dto.Barcode, dto.Name, dto.Category, dto.ExpirationDate)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, owner, product, asOf)
}

func (s *Service) register(ctx context.Context, owner uuid.UUID, product *inventory.Product, asOf time.Time) (*ProductDto, error) {
	err := s.withTracker(ctx, owner, func(t *inventory.Tracker) error {
		if _, exists := t.Get(product.Barcode()); exists {
			return fmt.Errorf("barcode %s: %w", product.Barcode(), fridgeerrors.ErrDuplicateProduct)
		}
		if err := s.store.Create(ctx, owner, product); err != nil {
			return fmt.Errorf("failed to create product %s: %w", product.Barcode(), err)
		}
		return t.Add(product)
	})
	if err != nil {
		return nil, err
	}
	s.registered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("storage", string(foodapi.ClassifyStorage(product.Category())))))
	s.logger.InfoContext(ctx, "Product registered", "barcode", product.Barcode())
	dto := toDto(product, asOf)
	return &dto, nil
}

func (s *Service) Scan(ctx context.Context, owner uuid.UUID, dto ScanDto, asOf time.Time) (*ProductDto, error) {
	record, err := s.lookup.Lookup(ctx, dto.Barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up barcode %s: %w", dto.Barcode, err)
	}
	expirationDate := strings.TrimSpace(dto.ExpirationDate)
	if expirationDate == "" {
		expirationDate = record.ExpirationDate
	}
	if expirationDate == "" {
		return nil, fmt.Errorf("barcode %s has no expiration date: %w", dto.Barcode, fridgeerrors.ErrInvalidDate)
	}
	product, err := inventory.NewProduct(dto.Barcode, record.Name, record.Category, expirationDate)
	if err != nil {
		return nil, err
	}
	return s.register(ctx, owner, product, asOf)
}

func (s *Service) FindByBarcode(ctx context.Context, owner uuid.UUID, barcode string, asOf time.Time) (*ProductDto, error) {
	var dto ProductDto
	err := s.withTracker(ctx, owner, func(t *inventory.Tracker) error {
		p, ok := t.Get(barcode)
		if !ok {
			return fmt.Errorf("barcode %s: %w", barcode, fridgeerrors.ErrProductNotFound)
		}
		dto = toDto(p, asOf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *Service) FindAll(ctx context.Context, owner uuid.UUID, asOf time.Time) ([]ProductDto, error) {
	var dtos []ProductDto
	err := s.withTracker(ctx, owner, func(t *inventory.Tracker) error {
		dtos = toDtos(t.List(), asOf)
		return nil
	})
	return dtos, err
}

func (s *Service) Remove(ctx context.Context, owner uuid.UUID, barcode string) error {
	return s.withTracker(ctx, owner, func(t *inventory.Tracker) error {
		p, ok := t.Get(barcode)
		if !ok {
			return nil
		}
		if err := s.store.Delete(ctx, owner, p.Barcode()); err != nil && !errors.Is(err, fridgeerrors.ErrProductNotFound) {
			return fmt.Errorf("failed to delete product %s: %w", p.Barcode(), err)
		}
		t.Remove(p.Barcode())
		return nil
	})
}

func (s *Service) MarkUsed(ctx context.Context, owner uuid.UUID, barcode string) error {
	return s.withTracker(ctx, owner, func(t *inventory.Tracker) error {
		p, ok := t.Get(barcode)
		if !ok || p.Used() {
			return nil
		}
		if err := s.store.MarkUsed(ctx, owner, p.Barcode()); err != nil && !errors.Is(err, fridgeerrors.ErrProductNotFound) {
			return fmt.Errorf("failed to mark product %s as used: %w", p.Barcode(), err)
		}
		p.MarkUsed()
		return nil
	})
}

func (s *Service) Expiring(ctx context.Context, owner uuid.UUID, days int, asOf time.Time) ([]ProductDto, error) {
	var dtos []ProductDto
	err := s.withTracker(ctx, owner, func(t *inventory.Tracker) error {
		dtos = toDtos(t.Expiring(days, asOf), asOf)
		return nil
	})
	return dtos, err
}

func (s *Service) NotifyExpiring(ctx context.Context, owner uuid.UUID, days int, asOf time.Time) (int, error) {
	var messages []notification.Message
	err := s.withTracker(ctx, owner, func(t *inventory.Tracker) error {
		for _, p := range t.Expiring(days, asOf) {
			messages = append(messages, notification.NewMessage(owner, p, asOf))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, msg := range messages {
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "Failed to deliver notification", "barcode", msg.Barcode, "error", err)
			continue
		}
		sent++
	}
	s.notified.Add(ctx, int64(sent))
	return sent, nil
}

func (s *Service) RecommendRecipes(ctx context.Context, owner uuid.UUID, dto RecipeRequestDto, asOf time.Time) (*RecipeDto, error) {
	if s.recommender == nil {
		return nil, fmt.Errorf("recipes are disabled: %w", fridgeerrors.ErrRecipeUnavailable)
	}
	var (
		text string
		err  error
	)
	if strings.TrimSpace(dto.ProductName) != "" {
		text, err = s.recommender.ForProduct(ctx, dto.ProductName, dto.Ingredients)
	} else {
		ingredients := dto.Ingredients
		if len(ingredients) == 0 {
			if ingredients, err = s.expiringNames(ctx, owner, asOf); err != nil {
				return nil, err
			}
		}
		text, err = s.recommender.Plan(ctx, ingredients, dto.Preferences, dto.Days)
	}
	if err != nil {
		return nil, err
	}
	return &RecipeDto{Recommendation: text}, nil
}

func (s *Service) expiringNames(ctx context.Context, owner uuid.UUID, asOf time.Time) ([]string, error) {
	var names []string
	err := s.withTracker(ctx, owner, func(t *inventory.Tracker) error {
		for _, p := range t.Expiring(s.expiringDays, asOf) {
			names = append(names, p.Name())
		}
		return nil
	})
	return names, err
}

func (s *Service) Lookup(ctx context.Context, barcode string) (*LookupDto, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, fmt.Errorf("empty barcode: %w", fridgeerrors.ErrInvalidIdentifier)
	}
	record, err := s.lookup.Lookup(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up barcode %s: %w", barcode, err)
	}
	return toLookupDto(record), nil
}
