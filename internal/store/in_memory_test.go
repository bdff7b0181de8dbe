package store

import (
	"context"
	"testing"

	fridgeerrors "github.com/abgdnv/fridgekeeper/internal/errors"
	"github.com/abgdnv/fridgekeeper/internal/inventory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T, barcode, date string) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(barcode, "name "+barcode, "냉장", date)
	require.NoError(t, err)
	return p
}

func Test_InMemoryStore_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()
	s := NewInMemoryStore()

	require.NoError(t, s.Create(ctx, owner, newProduct(t, "A", "20240220")))
	require.NoError(t, s.Create(ctx, owner, newProduct(t, "B", "20240301")))
	require.NoError(t, s.Create(ctx, other, newProduct(t, "A", "20240101")))

	err := s.Create(ctx, owner, newProduct(t, "A", "20250101"))
	assert.ErrorIs(t, err, fridgeerrors.ErrDuplicateProduct)

	list, err := s.FindAll(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Barcode())
	assert.Equal(t, "20240220", inventory.FormatDate(list[0].ExpirationDate()))
	assert.Equal(t, "B", list[1].Barcode())
}

func Test_InMemoryStore_FindAll_Empty(t *testing.T) {
	list, err := NewInMemoryStore().FindAll(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func Test_InMemoryStore_MarkUsedAndDelete(t *testing.T) {
	testCases := []struct {
		name        string
		op          func(s *InMemoryStore, owner uuid.UUID) error
		expectError error
		expectUsed  bool
		expectLen   int
	}{
		{
			name:       "mark used",
			op:         func(s *InMemoryStore, owner uuid.UUID) error { return s.MarkUsed(context.Background(), owner, "A") },
			expectUsed: true,
			expectLen:  1,
		},
		{
			name:        "mark used missing",
			op:          func(s *InMemoryStore, owner uuid.UUID) error { return s.MarkUsed(context.Background(), owner, "Z") },
			expectError: fridgeerrors.ErrProductNotFound,
			expectLen:   1,
		},
		{
			name:      "delete",
			op:        func(s *InMemoryStore, owner uuid.UUID) error { return s.Delete(context.Background(), owner, "A") },
			expectLen: 0,
		},
		{
			name:        "delete missing",
			op:          func(s *InMemoryStore, owner uuid.UUID) error { return s.Delete(context.Background(), owner, "Z") },
			expectError: fridgeerrors.ErrProductNotFound,
			expectLen:   1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			owner := uuid.New()
			s := NewInMemoryStore()
			require.NoError(t, s.Create(context.Background(), owner, newProduct(t, "A", "20240220")))
			// when
			err := tc.op(s, owner)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
			} else {
				require.NoError(t, err)
			}
			list, err := s.FindAll(context.Background(), owner)
			require.NoError(t, err)
			require.Len(t, list, tc.expectLen)
			if tc.expectLen > 0 {
				assert.Equal(t, tc.expectUsed, list[0].Used())
			}
		})
	}
}

func Test_InMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	s := NewInMemoryStore()
	p := newProduct(t, "A", "20240220")
	require.NoError(t, s.Create(ctx, owner, p))

	p.MarkUsed()

	list, err := s.FindAll(ctx, owner)
	require.NoError(t, err)
	assert.False(t, list[0].Used(), "store must not share the caller's product")
}
