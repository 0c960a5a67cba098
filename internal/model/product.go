package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is one sellable item. The row is branch-scoped, so StockQuantity
// is the on-hand quantity at that branch. StockQuantity is never written
// directly: every change goes through the stock ledger, which appends a
// StockMovement row in the same DB transaction.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU           string          `gorm:"uniqueIndex;not null"`
	Name          string          `gorm:"index;not null"`
	BranchID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRatePct    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	StockQuantity int             `gorm:"not null;default:0"`
	ReorderLevel  int             `gorm:"not null;default:5"`
	Active        bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Branch *Branch `gorm:"foreignKey:BranchID"`
}
