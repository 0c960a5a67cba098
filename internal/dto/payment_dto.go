package dto

import "github.com/shopspring/decimal"

// CreatePaymentRequest is the body of POST /payments.
type CreatePaymentRequest struct {
	TransactionID string          `json:"transactionId" validate:"required,uuid"`
	Method        string          `json:"method"        validate:"required"`
	Amount        decimal.Decimal `json:"amount"        validate:"required"`
}

// PaymentEntryRequest is one entry of POST /payments/multiple (and of the
// payments array on transaction creation).
type PaymentEntryRequest struct {
	Method string          `json:"method" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// CreateMultiplePaymentsRequest is the body of POST /payments/multiple.
type CreateMultiplePaymentsRequest struct {
	TransactionID string                `json:"transactionId" validate:"required,uuid"`
	Payments      []PaymentEntryRequest `json:"payments"      validate:"required,min=1,dive"`
}

// UpdatePaymentRequest is the body of PATCH /payments/:id.
type UpdatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type PaymentResponse struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     string          `json:"createdAt"`
}

// MultiplePaymentsSummary reports the outcome of a payment batch.
type MultiplePaymentsSummary struct {
	TotalProcessed    decimal.Decimal `json:"totalProcessed"`
	TransactionStatus string          `json:"transactionStatus"`
}

type MultiplePaymentsResponse struct {
	Payments []PaymentResponse       `json:"payments"`
	Summary  MultiplePaymentsSummary `json:"summary"`
}

// PaymentResult pairs a created/updated payment with the transaction status
// it produced.
type PaymentResult struct {
	Payment           PaymentResponse `json:"payment"`
	TransactionStatus string          `json:"transactionStatus"`
}
