package service

import (
	"context"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockService is the stock ledger: the only path through which a product's
// on-hand quantity changes. Every adjustment appends one immutable
// StockMovement row atomically with the quantity update.
type StockService interface {
	// Adjust applies a signed delta in its own transaction.
	Adjust(ctx context.Context, productID uuid.UUID, change int, reason string, referenceID *uuid.UUID, note string) (*dto.StockResponse, error)
	// AdjustTx applies a signed delta inside the caller's transaction —
	// used by settlement so stock changes commit with the sale.
	AdjustTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, change int, reason string, referenceID *uuid.UUID, note string) (*model.StockMovement, error)
	ListMovements(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error)
}

type stockService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

func NewStockService(products repository.ProductRepository, movements repository.StockMovementRepository) StockService {
	return &stockService{products: products, movements: movements}
}

func (s *stockService) Adjust(ctx context.Context, productID uuid.UUID, change int, reason string, referenceID *uuid.UUID, note string) (*dto.StockResponse, error) {
	if !model.ValidStockReason(reason) {
		return nil, apierror.Validation("Invalid stock movement reason")
	}
	if change == 0 {
		return nil, apierror.Validation("Stock change must not be 0")
	}

	var mov *model.StockMovement
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		var err error
		mov, err = s.AdjustTx(ctx, tx, productID, change, reason, referenceID, note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.StockResponse{
		ProductID:     mov.ProductID.String(),
		BranchID:      mov.BranchID.String(),
		StockQuantity: mov.QuantityAfter,
	}, nil
}

func (s *stockService) AdjustTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, change int, reason string, referenceID *uuid.UUID, note string) (*model.StockMovement, error) {
	// Row lock makes the read-check-write safe under concurrent sales of
	// the same product.
	p, err := s.products.FindByIDForUpdateTx(tx, productID)
	if err != nil {
		return nil, apierror.NotFound("Product not found")
	}

	newQty := p.StockQuantity + change
	if newQty < 0 {
		return nil, apierror.BusinessRule("Insufficient stock")
	}

	if err := s.products.UpdateStockTx(tx, productID, newQty); err != nil {
		return nil, err
	}

	mov := &model.StockMovement{
		ProductID:      p.ID,
		BranchID:       p.BranchID,
		Change:         change,
		Reason:         reason,
		QuantityBefore: p.StockQuantity,
		QuantityAfter:  newQty,
		ReferenceID:    referenceID,
		Note:           note,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	if newQty <= p.ReorderLevel {
		log.Warn().
			Str("product_id", p.ID.String()).
			Str("sku", p.SKU).
			Int("stock", newQty).
			Int("reorder_level", p.ReorderLevel).
			Msg("stock at or below reorder level")
	}
	return mov, nil
}

func (s *stockService) ListMovements(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	return s.movements.List(ctx, filter)
}
