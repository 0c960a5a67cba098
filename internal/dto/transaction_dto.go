package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type TransactionLineRequest struct {
	ProductID   string  `json:"productId"   validate:"required,uuid"`
	Qty         int     `json:"qty"         validate:"required,min=1"`
	PromotionID *string `json:"promotionId" validate:"omitempty,uuid"`
}

type CreateTransactionRequest struct {
	BranchID   string                   `json:"branchId"   validate:"required,uuid"`
	CustomerID *string                  `json:"customerId" validate:"omitempty,uuid"`
	CashierID  *string                  `json:"cashierId"  validate:"omitempty,uuid"`
	Lines      []TransactionLineRequest `json:"lines"      validate:"required,min=1,dive"`
	Payments   []PaymentEntryRequest    `json:"payments"   validate:"omitempty,dive"`
	// RedeemPoints deducts loyalty points from the customer as part of the
	// settlement. Requires customerId.
	RedeemPoints int             `json:"redeemPoints" validate:"min=0"`
	Metadata     json.RawMessage `json:"metadata"`
}

// UpdateTransactionRequest covers the only two mutable things post-creation:
// metadata and status. COMPLETED back to PENDING is rejected downstream.
type UpdateTransactionRequest struct {
	Status   *string         `json:"status" validate:"omitempty,oneof=PENDING COMPLETED"`
	Metadata json.RawMessage `json:"metadata"`
}

type AddLineRequest struct {
	ProductID   string  `json:"productId"   validate:"required,uuid"`
	Qty         int     `json:"qty"         validate:"required,min=1"`
	PromotionID *string `json:"promotionId" validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransactionLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	Product     string          `json:"product,omitempty"`
	PromotionID *string         `json:"promotionId,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Qty         int             `json:"qty"`
	Discount    decimal.Decimal `json:"discount"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type TransactionResponse struct {
	ID                  string                    `json:"id"`
	BranchID            string                    `json:"branchId"`
	CustomerID          *string                   `json:"customerId,omitempty"`
	CashierID           *string                   `json:"cashierId,omitempty"`
	ReceiptNumber       string                    `json:"receiptNumber"`
	TotalGross          decimal.Decimal           `json:"totalGross"`
	TotalTax            decimal.Decimal           `json:"totalTax"`
	TotalNet            decimal.Decimal           `json:"totalNet"`
	Status              string                    `json:"status"`
	LoyaltyPointsEarned int                       `json:"loyaltyPointsEarned"`
	LoyaltyPointsUsed   int                       `json:"loyaltyPointsUsed"`
	Lines               []TransactionLineResponse `json:"lines"`
	Payments            []PaymentResponse         `json:"payments"`
	Metadata            json.RawMessage           `json:"metadata,omitempty"`
	CreatedAt           string                    `json:"createdAt"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
