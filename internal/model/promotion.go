package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Promotion types.
const (
	PromoPercentage  = "PERCENTAGE"
	PromoFixedAmount = "FIXED_AMOUNT"
	PromoBuyXGetY    = "BUY_X_GET_Y"
)

// Promotion is an immutable discount rule evaluated per calculation call.
// Which fields are required depends on Type:
//
//	PERCENTAGE   — DiscountPct in (0, 100]
//	FIXED_AMOUNT — DiscountAmt > 0 (per unit)
//	BUY_X_GET_Y  — BuyQty > 0 and GetQty > 0
type Promotion struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string          `gorm:"not null"`
	Type        string          `gorm:"type:varchar(20);not null"`
	DiscountPct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmt decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	BuyQty      int             `gorm:"not null;default:0"`
	GetQty      int             `gorm:"not null;default:0"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
