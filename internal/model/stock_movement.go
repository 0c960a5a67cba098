package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement reasons. "sale" decrements on settlement; "return" is also
// the reason used when a pending transaction is deleted and its stock is
// restored — the original movement is never edited.
const (
	ReasonSale       = "sale"
	ReasonPurchase   = "purchase"
	ReasonAdjustment = "adjustment"
	ReasonTransfer   = "transfer"
	ReasonSpoilage   = "spoilage"
	ReasonReturn     = "return"
	ReasonDamaged    = "damaged"
)

// ValidStockReason reports whether reason is one of the accepted movement
// reasons.
func ValidStockReason(reason string) bool {
	switch reason {
	case ReasonSale, ReasonPurchase, ReasonAdjustment, ReasonTransfer,
		ReasonSpoilage, ReasonReturn, ReasonDamaged:
		return true
	}
	return false
}

// StockMovement records one stock-quantity change on a product.
// Movements are append-only audit records; the product's quantity is the
// running sum. Corrections are new movements, never edits.
type StockMovement struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Change         int       `gorm:"not null"` // positive = in, negative = out
	Reason         string    `gorm:"type:varchar(20);not null"`
	QuantityBefore int       `gorm:"not null"`
	QuantityAfter  int       `gorm:"not null"`
	// ReferenceID links to the originating transaction, if any
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	Note        string
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (StockMovement) TableName() string { return "stock_movements" }
