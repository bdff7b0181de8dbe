package store

import (
	"context"
	"fmt"
	"time"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ProductStore = (*PgStore)(nil)

const (
	findAllQuery = `
SELECT barcode, name, category, expiration_date, used
FROM fridge_products
WHERE owner_id = $1
ORDER BY id`

	createQuery = `
INSERT INTO fridge_products (owner_id, barcode, name, category, expiration_date, used)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (owner_id, barcode) DO NOTHING`

	deleteQuery = `DELETE FROM fridge_products WHERE owner_id = $1 AND barcode = $2`

	markUsedQuery = `UPDATE fridge_products SET used = TRUE WHERE owner_id = $1 AND barcode = $2`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// FindAll returns the owner's products ordered by insertion.
func (p *PgStore) FindAll(ctx context.Context, owner uuid.UUID) ([]*inventory.Product, error) {
	rows, err := p.db.Query(ctx, findAllQuery, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer rows.Close()

	products := make([]*inventory.Product, 0)
	for rows.Next() {
		var (
			barcode, name, category string
			expirationDate          time.Time
			used                    bool
		)
		if err := rows.Scan(&barcode, &name, &category, &expirationDate, &used); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		product, err := inventory.NewProductWithDate(barcode, name, category, expirationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid stored product %s: %w", barcode, err)
		}
		if used {
			product.MarkUsed()
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// Create inserts the product; a conflicting (owner, barcode) row is reported as ErrDuplicateProduct.
func (p *PgStore) Create(ctx context.Context, owner uuid.UUID, product *inventory.Product) error {
	tag, err := p.db.Exec(ctx, createQuery,
		owner,
		product.Barcode(),
		product.Name(),
		product.Category(),
		product.ExpirationDate(),
		product.Used(),
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("barcode %s: %w", product.Barcode(), fridgeerrors.ErrDuplicateProduct)
	}
	return nil
}

// Delete removes a product by its barcode.
func (p *PgStore) Delete(ctx context.Context, owner uuid.UUID, barcode string) error {
	return p.execOne(ctx, deleteQuery, owner, barcode, "delete")
}

// MarkUsed sets the used flag of a product.
func (p *PgStore) MarkUsed(ctx context.Context, owner uuid.UUID, barcode string) error {
	return p.execOne(ctx, markUsedQuery, owner, barcode, "mark used")
}

func (p *PgStore) execOne(ctx context.Context, query string, owner uuid.UUID, barcode, op string) error {
	tag, err := p.db.Exec(ctx, query, owner, barcode)
	if err != nil {
		return fmt.Errorf("failed to %s product: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("barcode %s: %w", barcode, fridgeerrors.ErrProductNotFound)
	}
	return nil
}
