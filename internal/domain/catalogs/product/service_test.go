package product

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/core/types"
	"canteenledger/internal/domain"
)

type memoryRepo struct {
	products map[id.ID]Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[id.ID]Product)}
}

func (r *memoryRepo) Create(ctx context.Context, p *Product) error {
	r.products[p.ID] = *p
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (r *memoryRepo) GetByCode(ctx context.Context, code string) (*Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (r *memoryRepo) Update(ctx context.Context, p *Product) error {
	stored, ok := r.products[p.ID]
	if !ok || stored.Version != p.Version-1 {
		return apperror.NewConcurrentModification("product", p.ID)
	}
	r.products[p.ID] = *p
	return nil
}

func (r *memoryRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	p.DeletionMark = marked
	r.products[productID] = p
	return nil
}

func (r *memoryRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	result := domain.ListResult[*Product]{Limit: filter.Limit, Offset: filter.Offset}
	for _, p := range r.products {
		if p.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.Search != "" && !strings.Contains(p.Name, filter.Search) {
			continue
		}
		clone := p
		result.Items = append(result.Items, &clone)
	}
	result.TotalCount = int64(len(result.Items))
	return result, nil
}

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestService_Create(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, noopTxManager{})
	ctx := context.Background()

	p := NewProduct("POPCORN-S", "Popcorn (salted)", "kg")
	p.Price = types.MustMoney("4.50")
	require.NoError(t, svc.Create(ctx, p))

	stored, err := svc.GetByCode(ctx, "POPCORN-S")
	require.NoError(t, err)
	assert.Equal(t, "Popcorn (salted)", stored.Name)
	assert.True(t, stored.IsAvailable)
	assert.Equal(t, 1, stored.Version)
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newMemoryRepo(), noopTxManager{})
	ctx := context.Background()

	tests := []struct {
		name string
		p    *Product
	}{
		{"missing code", NewProduct("", "Name", "kg")},
		{"missing name", NewProduct("CODE", "", "kg")},
		{"missing unit", NewProduct("CODE", "Name", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(ctx, tt.p)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}

	negative := NewProduct("CODE", "Name", "kg")
	negative.MinStock = types.NewQuantityFromInt(-1)
	assert.Error(t, svc.Create(ctx, negative))
}

func TestService_Create_DuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo(), noopTxManager{})
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, NewProduct("COLA-05", "Cola 0.5l", "pcs")))

	err := svc.Create(ctx, NewProduct("COLA-05", "Other cola", "pcs"))
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestService_Update(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, noopTxManager{})
	ctx := context.Background()

	p := NewProduct("NACHOS", "Nachos", "pcs")
	require.NoError(t, svc.Create(ctx, p))

	p.Name = "Nachos with cheese dip"
	require.NoError(t, svc.Update(ctx, p))
	assert.Equal(t, 2, p.Version)

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nachos with cheese dip", stored.Name)
}

func TestService_SetDeletionMark(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, noopTxManager{})
	ctx := context.Background()

	p := NewProduct("WATER-05", "Still water 0.5l", "pcs")
	require.NoError(t, svc.Create(ctx, p))
	require.NoError(t, svc.SetDeletionMark(ctx, p.ID, true))

	list, err := svc.List(ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	filter := domain.DefaultListFilter()
	filter.IncludeDeleted = true
	list, err = svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}
