package infra

import (
	"fmt"

	"poscore/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// to create / update all tables, then applies the idempotent SQL patches
// GORM cannot express (the receipt-number sequence).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Branch{},
		&model.Product{},
		&model.StockMovement{},
		&model.Customer{},
		&model.LoyaltyTransaction{},
		&model.Promotion{},
		&model.Transaction{},
		&model.TransactionLine{},
		&model.Payment{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches creates SQL objects AutoMigrate cannot. Each statement
// is idempotent so re-running on an already-patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"receipt number sequence",
			`CREATE SEQUENCE IF NOT EXISTS transactions_receipt_seq START 1`},
		{"stock movements are append-only (no natural FK cascade)",
			`CREATE INDEX IF NOT EXISTS idx_stock_movements_reference ON stock_movements (reference_id)`},
		{"loyalty reference lookup for reversals",
			`CREATE INDEX IF NOT EXISTS idx_loyalty_transactions_reference ON loyalty_transactions (reference_id)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", p.descr, err)
		}
	}
	return nil
}
