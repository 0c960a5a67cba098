package dto

// AdjustStockRequest is the body of PATCH /products/:id/stock.
// Change is signed: positive receives stock, negative removes it.
type AdjustStockRequest struct {
	Change int    `json:"change" validate:"required"`
	Reason string `json:"reason" validate:"required"`
	Note   string `json:"note"`
}

type StockResponse struct {
	ProductID     string `json:"productId"`
	BranchID      string `json:"branchId"`
	StockQuantity int    `json:"stockQuantity"`
}

type StockMovementResponse struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	BranchID       string  `json:"branchId"`
	Change         int     `json:"change"`
	Reason         string  `json:"reason"`
	QuantityBefore int     `json:"quantityBefore"`
	QuantityAfter  int     `json:"quantityAfter"`
	ReferenceID    *string `json:"referenceId,omitempty"`
	Note           string  `json:"note,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}
