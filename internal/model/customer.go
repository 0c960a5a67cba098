package model

import (
	"time"

	"github.com/google/uuid"
)

// Loyalty tiers. Tier affects the earn multiplier applied at settlement.
const (
	TierStandard = "STANDARD"
	TierSilver   = "SILVER"
	TierGold     = "GOLD"
	TierPlatinum = "PLATINUM"
)

// LoyaltyTransaction types.
const (
	LoyaltyEarned   = "EARNED"
	LoyaltyRedeemed = "REDEEMED"
)

// Customer holds the loyalty balance. LoyaltyPoints is never negative and is
// mutated only through the loyalty ledger, which appends a LoyaltyTransaction
// row in the same DB transaction.
type Customer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string    `gorm:"not null"`
	Email         *string   `gorm:"uniqueIndex"`
	Phone         *string
	LoyaltyPoints int    `gorm:"not null;default:0"`
	LoyaltyTier   string `gorm:"type:varchar(20);not null;default:'STANDARD'"`
	Active        bool   `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LoyaltyTransaction is an immutable entry in a customer's points ledger.
// Points stores the absolute magnitude; Type carries the sign. A settlement
// that both earns and redeems produces two entries, never one netted entry.
type LoyaltyTransaction struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Points       int       `gorm:"not null"`
	Type         string    `gorm:"type:varchar(10);not null"` // EARNED | REDEEMED
	Reason       string    `gorm:"not null"`
	BalanceAfter int       `gorm:"not null"`
	ReferenceID  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time

	Customer *Customer `gorm:"foreignKey:CustomerID"`
}

func (LoyaltyTransaction) TableName() string { return "loyalty_transactions" }
