package product

import (
	"context"
	"fmt"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/core/tx"
	"canteenledger/internal/domain"
	"canteenledger/pkg/logger"
)

// Service provides business logic for the product catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager // Optional. If nil, obtained from context.
	hooks     *domain.HookRegistry[*Product]
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Product](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Product] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tx.FromContext(ctx)
}

// Create validates and persists a new product, enforcing code uniqueness.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := s.hooks.RunBeforeCreate(ctx, p); err != nil {
		return err
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if existing, err := s.repo.GetByCode(ctx, p.Code); err == nil && existing.ID != p.ID {
		return apperror.NewConflict("product with this code already exists").
			WithDetail("code", p.Code)
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, p); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "product created", "product_id", p.ID, "code", p.Code)
	return nil
}

// Get retrieves a product by ID.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetByCode retrieves a product by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Product, error) {
	return s.repo.GetByCode(ctx, code)
}

// Update validates and persists product changes.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := s.hooks.RunBeforeUpdate(ctx, p); err != nil {
		return err
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if existing, err := s.repo.GetByCode(ctx, p.Code); err == nil && existing.ID != p.ID {
		return apperror.NewConflict("product with this code already exists").
			WithDetail("code", p.Code)
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p.Touch()
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, p); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	logger.Info(ctx, "product updated", "product_id", p.ID, "version", p.Version)
	return nil
}

// SetDeletionMark marks or unmarks a product for deletion. Ledger history
// is never removed with the product.
func (s *Service) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetDeletionMark(ctx, productID, marked); err != nil {
			return fmt.Errorf("set deletion mark: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product deletion mark changed", "product_id", productID, "marked", marked)
	return nil
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}
