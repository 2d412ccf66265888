// Package ledger_repo provides the PostgreSQL implementation of the stock
// ledger repository. TxManager is obtained from context.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"canteenledger/internal/core/apperror"
	"canteenledger/internal/core/id"
	"canteenledger/internal/domain/ledger"
	"canteenledger/internal/infrastructure/storage/postgres"
)

const stockEntriesTable = "canteen_stock_entries"

// lockTimeout bounds how long a writer waits for a ledger lock before the
// request fails with a timeout instead of queueing indefinitely.
const lockTimeout = "3s"

// SQLSTATE for lock_not_available, raised when lock_timeout expires.
const pgLockNotAvailable = "55P03"

var stockEntryColumns = []string{
	"id", "theater_id", "product_id", "entry_date", "entry_type",
	"quantity_added", "used_stock", "damage_stock",
	"expire_date", "batch_number", "notes",
	"version", "created_at", "updated_at",
}

// StockEntryRepo implements ledger.Repository.
type StockEntryRepo struct {
	builder squirrel.StatementBuilderType
}

// NewStockEntryRepo creates a new stock entry repository.
func NewStockEntryRepo() *StockEntryRepo {
	return &StockEntryRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// getTxManager retrieves TxManager from context.
func (r *StockEntryRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// Create inserts a new stock entry.
func (r *StockEntryRepo) Create(ctx context.Context, entry *ledger.StockEntry) error {
	q := r.builder.Insert(stockEntriesTable).
		Columns(stockEntryColumns...).
		Values(
			entry.ID, entry.TheaterID, entry.ProductID, entry.EntryDate, entry.Type,
			entry.QuantityAdded, entry.UsedStock, entry.DamageStock,
			entry.ExpireDate, entry.BatchNumber, entry.Notes,
			entry.Version, entry.CreatedAt, entry.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock entry: %w", err)
	}

	return nil
}

// GetByID retrieves a stock entry by ID.
func (r *StockEntryRepo) GetByID(ctx context.Context, entryID id.ID) (*ledger.StockEntry, error) {
	q := r.builder.Select(stockEntryColumns...).
		From(stockEntriesTable).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entry ledger.StockEntry
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &entry, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock entry", entryID)
		}
		return nil, fmt.Errorf("get stock entry: %w", err)
	}

	return &entry, nil
}

// Update modifies an entry with optimistic locking. The entry's Version is
// expected to be already incremented by the service; the WHERE clause
// matches the previous version.
func (r *StockEntryRepo) Update(ctx context.Context, entry *ledger.StockEntry) error {
	q := r.builder.Update(stockEntriesTable).
		Set("entry_date", entry.EntryDate).
		Set("quantity_added", entry.QuantityAdded).
		Set("used_stock", entry.UsedStock).
		Set("damage_stock", entry.DamageStock).
		Set("expire_date", entry.ExpireDate).
		Set("batch_number", entry.BatchNumber).
		Set("notes", entry.Notes).
		Set("version", entry.Version).
		Set("updated_at", entry.UpdatedAt).
		Where(squirrel.Eq{
			"id":      entry.ID,
			"version": entry.Version - 1,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("stock entry", entry.ID)
	}

	return nil
}

// Delete physically removes an entry.
func (r *StockEntryRepo) Delete(ctx context.Context, entryID id.ID) error {
	q := r.builder.Delete(stockEntriesTable).
		Where(squirrel.Eq{"id": entryID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete stock entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock entry", entryID)
	}

	return nil
}

// ListByLedger returns all entries of one (theater, product) ledger in the
// canonical aggregation order: entry_date ascending, id ascending.
func (r *StockEntryRepo) ListByLedger(ctx context.Context, theaterID, productID id.ID) ([]ledger.StockEntry, error) {
	q := r.builder.Select(stockEntryColumns...).
		From(stockEntriesTable).
		Where(squirrel.Eq{
			"theater_id": theaterID,
			"product_id": productID,
		}).
		OrderBy("entry_date ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.StockEntry
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock entries: %w", err)
	}

	return entries, nil
}

// ListByTheater returns all entries of a theater grouped by product.
func (r *StockEntryRepo) ListByTheater(ctx context.Context, theaterID id.ID) ([]ledger.StockEntry, error) {
	q := r.builder.Select(stockEntryColumns...).
		From(stockEntriesTable).
		Where(squirrel.Eq{"theater_id": theaterID}).
		OrderBy("product_id ASC", "entry_date ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.StockEntry
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock entries: %w", err)
	}

	return entries, nil
}

// LockLedger serializes writers of one (theater, product) ledger using a
// transaction-scoped advisory lock. The lock is released automatically at
// commit or rollback. Waiting is bounded by lock_timeout; on expiry the
// caller gets a retryable timeout error.
func (r *StockEntryRepo) LockLedger(ctx context.Context, theaterID, productID id.ID) error {
	txm := r.getTxManager(ctx)
	if txm.GetTx(ctx) == nil {
		return fmt.Errorf("LockLedger requires transaction context")
	}

	querier := txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", lockTimeout)); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	key := theaterID.String() + ":" + productID.String()
	_, err := querier.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return apperror.NewTimeout("ledger is busy, try again").
				WithDetail("theaterId", theaterID).
				WithDetail("productId", productID)
		}
		return fmt.Errorf("acquire ledger lock: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*StockEntryRepo)(nil)
