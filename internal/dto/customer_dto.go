package dto

// AdjustLoyaltyRequest is the body of POST /customers/:id/loyalty-points.
// Points is signed: positive earns, negative redeems.
type AdjustLoyaltyRequest struct {
	Points int    `json:"points" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type LoyaltyBalanceResponse struct {
	CustomerID    string `json:"customerId"`
	LoyaltyPoints int    `json:"loyaltyPoints"`
	LoyaltyTier   string `json:"loyaltyTier"`
}

type LoyaltyEntryResponse struct {
	ID           string  `json:"id"`
	CustomerID   string  `json:"customerId"`
	Points       int     `json:"points"`
	Type         string  `json:"type"`
	Reason       string  `json:"reason"`
	BalanceAfter int     `json:"balanceAfter"`
	ReferenceID  *string `json:"referenceId,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

type LoyaltyHistoryResponse struct {
	Data  []LoyaltyEntryResponse `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

type CreateCustomerRequest struct {
	Name  string  `json:"name"  validate:"required"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone"`
}

type UpdateCustomerRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone"`
	LoyaltyTier *string `json:"loyaltyTier" validate:"omitempty,oneof=STANDARD SILVER GOLD PLATINUM"`
}

type CustomerResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	LoyaltyPoints int     `json:"loyaltyPoints"`
	LoyaltyTier   string  `json:"loyaltyTier"`
	Active        bool    `json:"active"`
}
