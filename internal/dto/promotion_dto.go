package dto

import "github.com/shopspring/decimal"

// CalculateDiscountRequest is the body of POST /promotions/calculate.
type CalculateDiscountRequest struct {
	PromotionID   string          `json:"promotionId"   validate:"required,uuid"`
	OriginalPrice decimal.Decimal `json:"originalPrice" validate:"required"`
	Quantity      int             `json:"quantity"      validate:"required,min=1"`
}

// CalculateDiscountResponse carries the discount breakdown. FreeItems and
// PaidItems are only set for BUY_X_GET_Y promotions.
type CalculateDiscountResponse struct {
	PromotionID    string          `json:"promotionId"`
	PromotionType  string          `json:"promotionType"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalPrice     decimal.Decimal `json:"finalPrice"`
	Savings        decimal.Decimal `json:"savings"`
	FreeItems      *int            `json:"freeItems,omitempty"`
	PaidItems      *int            `json:"paidItems,omitempty"`
}

type CreatePromotionRequest struct {
	Name        string          `json:"name" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=PERCENTAGE FIXED_AMOUNT BUY_X_GET_Y"`
	DiscountPct decimal.Decimal `json:"discountPct"`
	DiscountAmt decimal.Decimal `json:"discountAmt"`
	BuyQty      int             `json:"buyQty" validate:"min=0"`
	GetQty      int             `json:"getQty" validate:"min=0"`
}

type UpdatePromotionRequest struct {
	Name        *string          `json:"name"`
	DiscountPct *decimal.Decimal `json:"discountPct"`
	DiscountAmt *decimal.Decimal `json:"discountAmt"`
	BuyQty      *int             `json:"buyQty" validate:"omitempty,min=1"`
	GetQty      *int             `json:"getQty" validate:"omitempty,min=1"`
}

type PromotionResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	DiscountPct decimal.Decimal `json:"discountPct"`
	DiscountAmt decimal.Decimal `json:"discountAmt"`
	BuyQty      int             `json:"buyQty"`
	GetQty      int             `json:"getQty"`
	Active      bool            `json:"active"`
}
