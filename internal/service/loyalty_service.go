package service

import (
	"context"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoyaltyService is the loyalty-points ledger. Balances change only through
// appended ledger entries, and the running balance never goes negative.
type LoyaltyService interface {
	Adjust(ctx context.Context, customerID uuid.UUID, delta int, reason string) (*dto.LoyaltyBalanceResponse, error)
	// AdjustTx runs inside the caller's transaction — used by settlement.
	// Returns the appended ledger entry.
	AdjustTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta int, reason string, referenceID *uuid.UUID) (*model.LoyaltyTransaction, error)
	History(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.LoyaltyTransaction, int64, error)
}

type loyaltyService struct {
	customers repository.CustomerRepository
}

func NewLoyaltyService(customers repository.CustomerRepository) LoyaltyService {
	return &loyaltyService{customers: customers}
}

func (s *loyaltyService) Adjust(ctx context.Context, customerID uuid.UUID, delta int, reason string) (*dto.LoyaltyBalanceResponse, error) {
	if delta == 0 {
		return nil, apierror.Validation("Points must not be 0")
	}
	if reason == "" {
		return nil, apierror.Validation("Required fields: points, reason")
	}

	var entry *model.LoyaltyTransaction
	err := runTx(ctx, s.customers.DB(), func(tx *gorm.DB) error {
		var err error
		entry, err = s.AdjustTx(ctx, tx, customerID, delta, reason, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	c, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &dto.LoyaltyBalanceResponse{
		CustomerID:    c.ID.String(),
		LoyaltyPoints: entry.BalanceAfter,
		LoyaltyTier:   c.LoyaltyTier,
	}, nil
}

func (s *loyaltyService) AdjustTx(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, delta int, reason string, referenceID *uuid.UUID) (*model.LoyaltyTransaction, error) {
	c, err := s.customers.FindByIDForUpdateTx(tx, customerID)
	if err != nil {
		return nil, apierror.NotFound("Customer not found")
	}

	newBalance := c.LoyaltyPoints + delta
	if newBalance < 0 {
		return nil, apierror.BusinessRule("Insufficient loyalty points")
	}

	if err := s.customers.UpdatePointsTx(tx, customerID, newBalance); err != nil {
		return nil, err
	}

	// Type derives from the sign; the entry stores the magnitude.
	entryType := model.LoyaltyEarned
	points := delta
	if delta < 0 {
		entryType = model.LoyaltyRedeemed
		points = -delta
	}
	entry := &model.LoyaltyTransaction{
		CustomerID:   customerID,
		Points:       points,
		Type:         entryType,
		Reason:       reason,
		BalanceAfter: newBalance,
		ReferenceID:  referenceID,
	}
	if err := s.customers.CreateLoyaltyEntryTx(tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *loyaltyService) History(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.LoyaltyTransaction, int64, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, 0, apierror.NotFound("Customer not found")
	}
	return s.customers.ListLoyaltyEntries(ctx, customerID, page, limit)
}
