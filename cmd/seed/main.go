// Package main provides a CLI tool for seeding the database with demo data:
// a product catalog and a month of stock entries for one theater.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"canteenledger/internal/core/id"
	"canteenledger/internal/core/types"
	"canteenledger/internal/domain/catalogs/product"
	"canteenledger/internal/domain/ledger"
	"canteenledger/internal/infrastructure/storage/postgres"
	"canteenledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	theaterID := id.New()
	if raw := os.Getenv("SEED_THEATER_ID"); raw != "" {
		theaterID, err = id.Parse(raw)
		if err != nil {
			log.Fatalw("invalid SEED_THEATER_ID", "error", err)
		}
	}

	txManager := postgres.NewTxManager(pool)
	inserter := postgres.NewBatchInserter(txManager)

	products := demoProducts()
	entries := demoEntries(theaterID, products)

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := insertProducts(ctx, inserter, products); err != nil {
			return err
		}
		return insertEntries(ctx, inserter, entries)
	})
	if err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Infow("seeding completed successfully",
		"theater_id", theaterID,
		"products", len(products),
		"stock_entries", len(entries),
	)
}

func demoProducts() []*product.Product {
	type item struct {
		code, name, unit, price string
		minStock                float64
		perishable              bool
	}
	items := []item{
		{"POPCORN-S", "Popcorn (salted)", "kg", "4.50", 10, false},
		{"POPCORN-C", "Popcorn (caramel)", "kg", "5.20", 10, false},
		{"COLA-05", "Cola 0.5l", "pcs", "1.80", 48, false},
		{"WATER-05", "Still water 0.5l", "pcs", "1.10", 48, false},
		{"HOTDOG", "Hot dog bun with sausage", "pcs", "3.40", 20, true},
		{"NACHOS", "Nachos with cheese dip", "pcs", "4.90", 15, true},
		{"ICECREAM", "Vanilla ice cream cup", "pcs", "2.60", 24, true},
	}

	products := make([]*product.Product, 0, len(items))
	for _, s := range items {
		p := product.NewProduct(s.code, s.name, s.unit)
		p.Price = types.MustMoney(s.price)
		p.MinStock = types.NewQuantityFromFloat64(s.minStock)
		p.Perishable = s.perishable
		products = append(products, p)
	}
	return products
}

func demoEntries(theaterID id.ID, products []*product.Product) []*ledger.StockEntry {
	monthStart := time.Now().UTC().AddDate(0, 0, -20).Truncate(24 * time.Hour)

	entries := make([]*ledger.StockEntry, 0, len(products)*3)
	for i, p := range products {
		for batch := 0; batch < 3; batch++ {
			entryDate := monthStart.AddDate(0, 0, batch*7+i)
			e := ledger.NewStockEntry(theaterID, p.ID, entryDate, types.NewQuantityFromInt(int64(50+10*batch)))
			e.UsedStock = types.NewQuantityFromInt(int64(5 * batch))
			e.BatchNumber = fmt.Sprintf("%s-%s-%d", p.Code, entryDate.Format("20060102"), batch+1)
			if p.Perishable {
				expire := entryDate.AddDate(0, 0, 14)
				e.ExpireDate = &expire
			}
			entries = append(entries, e)
		}
	}
	return entries
}

func insertProducts(ctx context.Context, inserter *postgres.BatchInserter, products []*product.Product) error {
	columns := []string{
		"id", "code", "name", "unit", "price", "min_stock",
		"perishable", "is_available", "deletion_mark",
		"version", "created_at", "updated_at",
	}
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{
			p.ID, p.Code, p.Name, p.Unit, p.Price, p.MinStock,
			p.Perishable, p.IsAvailable, p.DeletionMark,
			p.Version, p.CreatedAt, p.UpdatedAt,
		})
	}

	if _, err := inserter.CopyFromSlice(ctx, "cat_products", columns, rows); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	return nil
}

func insertEntries(ctx context.Context, inserter *postgres.BatchInserter, entries []*ledger.StockEntry) error {
	columns := []string{
		"id", "theater_id", "product_id", "entry_date", "entry_type",
		"quantity_added", "used_stock", "damage_stock",
		"expire_date", "batch_number", "notes",
		"version", "created_at", "updated_at",
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			e.ID, e.TheaterID, e.ProductID, e.EntryDate, e.Type,
			e.QuantityAdded, e.UsedStock, e.DamageStock,
			e.ExpireDate, e.BatchNumber, e.Notes,
			e.Version, e.CreatedAt, e.UpdatedAt,
		})
	}

	if _, err := inserter.CopyFromSlice(ctx, "canteen_stock_entries", columns, rows); err != nil {
		return fmt.Errorf("seed stock entries: %w", err)
	}
	return nil
}
