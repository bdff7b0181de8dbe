package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/google/uuid"
)

var _ ProductStore = (*InMemoryStore)(nil)

// record is a stored copy of a product, detached from the caller's instance.
type record struct {
	barcode        string
	name           string
	category       string
	expirationDate time.Time
	used           bool
}

// InMemoryStore implements ProductStore using per-owner slices kept in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	owners map[uuid.UUID][]record
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		owners: make(map[uuid.UUID][]record),
	}
}

// FindAll returns fresh copies of the owner's products.
func (s *InMemoryStore) FindAll(_ context.Context, owner uuid.UUID) ([]*inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.owners[owner]
	list := make([]*inventory.Product, 0, len(records))
	for _, r := range records {
		p, err := inventory.NewProductWithDate(r.barcode, r.name, r.category, r.expirationDate)
		if err != nil {
			return nil, err
		}
		if r.used {
			p.MarkUsed()
		}
		list = append(list, p)
	}
	return list, nil
}

// Create stores a copy of the product.
func (s *InMemoryStore) Create(_ context.Context, owner uuid.UUID, product *inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(owner, product.Barcode()) >= 0 {
		return fmt.Errorf("barcode %s: %w", product.Barcode(), fridgeerrors.ErrDuplicateProduct)
	}
	s.owners[owner] = append(s.owners[owner], record{
		barcode:        product.Barcode(),
		name:           product.Name(),
		category:       product.Category(),
		expirationDate: product.ExpirationDate(),
		used:           product.Used(),
	})
	return nil
}

// Delete removes a product by its barcode.
func (s *InMemoryStore) Delete(_ context.Context, owner uuid.UUID, barcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(owner, barcode)
	if i < 0 {
		return fmt.Errorf("barcode %s: %w", barcode, fridgeerrors.ErrProductNotFound)
	}
	s.owners[owner] = slices.Delete(s.owners[owner], i, i+1)
	return nil
}

// MarkUsed sets the used flag of a product.
func (s *InMemoryStore) MarkUsed(_ context.Context, owner uuid.UUID, barcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(owner, barcode)
	if i < 0 {
		return fmt.Errorf("barcode %s: %w", barcode, fridgeerrors.ErrProductNotFound)
	}
	s.owners[owner][i].used = true
	return nil
}

func (s *InMemoryStore) indexOf(owner uuid.UUID, barcode string) int {
	return slices.IndexFunc(s.owners[owner], func(r record) bool {
		return r.barcode == barcode
	})
}
