package service

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// paymentTolerance is the fixed 1-cent allowance used when comparing paid
// amount to total owed. It absorbs rounding noise from fractional splits
// (e.g. 33.33 paid as 11.11 x 3).
var paymentTolerance = decimal.New(1, -2) // 0.01

// round2 applies the uniform monetary rounding rule: half away from zero,
// two decimal places.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
