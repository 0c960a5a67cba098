package dto

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	SKU          string          `json:"sku"        validate:"required"`
	Name         string          `json:"name"       validate:"required"`
	BranchID     string          `json:"branchId"   validate:"required,uuid"`
	UnitPrice    decimal.Decimal `json:"unitPrice"  validate:"required"`
	TaxRatePct   decimal.Decimal `json:"taxRatePct" validate:"min=0,max=100"`
	ReorderLevel int             `json:"reorderLevel" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	TaxRatePct   *decimal.Decimal `json:"taxRatePct" validate:"omitempty,min=0,max=100"`
	ReorderLevel *int             `json:"reorderLevel" validate:"omitempty,min=0"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	BranchID      string          `json:"branchId"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TaxRatePct    decimal.Decimal `json:"taxRatePct"`
	StockQuantity int             `json:"stockQuantity"`
	ReorderLevel  int             `json:"reorderLevel"`
	Active        bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type CreateBranchRequest struct {
	Code    string  `json:"code" validate:"required"`
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"address"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

type BranchResponse struct {
	ID      string  `json:"id"`
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
	Active  bool    `json:"active"`
}
