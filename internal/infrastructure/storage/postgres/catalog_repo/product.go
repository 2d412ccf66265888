// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories. TxManager is obtained from context per-request.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/domain"
	"canteenledger/internal/domain/catalogs/product"
	"canteenledger/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

var productColumns = []string{
	"id", "code", "name", "unit", "price", "min_stock",
	"perishable", "is_available", "deletion_mark",
	"version", "created_at", "updated_at",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	builder squirrel.StatementBuilderType
}

// NewProductRepo creates a new product catalog repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProductRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.Code, p.Name, p.Unit, p.Price, p.MinStock,
			p.Perishable, p.IsAvailable, p.DeletionMark,
			p.Version, p.CreatedAt, p.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"id": productID}, productID)
}

// GetByCode retrieves a product by its unique code.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *ProductRepo) getOne(ctx context.Context, cond squirrel.Eq, key any) (*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(cond).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// Update modifies a product with optimistic locking.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productsTable).
		Set("code", p.Code).
		Set("name", p.Name).
		Set("unit", p.Unit).
		Set("price", p.Price).
		Set("min_stock", p.MinStock).
		Set("perishable", p.Perishable).
		Set("is_available", p.IsAvailable).
		Set("deletion_mark", p.DeletionMark).
		Set("version", p.Version).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{
			"id":      p.ID,
			"version": p.Version - 1,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("product", p.ID)
	}

	return nil
}

// SetDeletionMark toggles the soft-delete flag.
func (r *ProductRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	q := r.builder.Update(productsTable).
		Set("deletion_mark", marked).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}

	return nil
}

// List returns products matching the filter with a total count.
func (r *ProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	base := r.builder.Select().From(productsTable)
	if !filter.IncludeDeleted {
		base = base.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		base = base.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	// Total count before pagination
	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	q := base.Columns(productColumns...)

	orderBy := "name ASC"
	switch filter.OrderBy {
	case "", "name":
	case "-name":
		orderBy = "name DESC"
	case "code":
		orderBy = "code ASC"
	case "-created_at":
		orderBy = "created_at DESC"
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select products: %w", err)
	}

	return result, nil
}

// Ensure interface compliance.
var _ product.Repository = (*ProductRepo)(nil)
