package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction status values. COMPLETED is terminal — a completed
// transaction never returns to PENDING.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
)

// Payment methods accepted at the till.
const (
	MethodCash   = "CASH"
	MethodCard   = "CARD"
	MethodMobile = "MOBILE"
)

// Transaction is one sale: the unit of atomicity. It owns its Lines and
// Payments; all mutations of the aggregate happen inside a single DB
// transaction spanning the touched stock and loyalty rows as well.
type Transaction struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BranchID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index"`
	CashierID     *uuid.UUID `gorm:"type:uuid"`
	ReceiptNumber string     `gorm:"uniqueIndex;not null"`
	TotalGross    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalTax      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalNet      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'PENDING'"`
	LoyaltyPointsEarned int             `gorm:"not null;default:0"`
	LoyaltyPointsUsed   int             `gorm:"not null;default:0"`
	Metadata            json.RawMessage `gorm:"type:jsonb"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Lines    []TransactionLine `gorm:"foreignKey:TransactionID"`
	Payments []Payment         `gorm:"foreignKey:TransactionID"`

	Branch   *Branch   `gorm:"foreignKey:BranchID"`
	Customer *Customer `gorm:"foreignKey:CustomerID"`
}

// TransactionLine is one product line. Invariant:
// LineTotal = round2(UnitPrice*Qty - Discount + TaxAmount).
// A line never exists outside its owning transaction. PromotionID records
// the promotion the Discount came from; lines only merge when it matches.
type TransactionLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PromotionID   *uuid.UUID      `gorm:"type:uuid"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Qty           int             `gorm:"not null"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Payment is one settlement movement against a transaction.
// sum(Amount) never exceeds TotalGross by more than the 1-cent tolerance,
// and payments are immutable once the transaction is COMPLETED.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method        string          `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time
}
