package service

import (
	"context"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountBreakdown is the result of evaluating one promotion against a
// price/quantity pair. FreeItems/PaidItems are only meaningful for
// BUY_X_GET_Y.
type DiscountBreakdown struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalPrice     decimal.Decimal
	FreeItems      int
	PaidItems      int
}

// CalculateDiscount evaluates a promotion rule. Pure function: no side
// effects, identical inputs yield identical output.
func CalculateDiscount(p *model.Promotion, originalPrice decimal.Decimal, quantity int) (DiscountBreakdown, error) {
	var out DiscountBreakdown

	if !p.Active {
		return out, apierror.BusinessRule("Promotion is not active")
	}
	if originalPrice.LessThanOrEqual(decimal.Zero) {
		return out, apierror.Validation("Original price must be greater than 0")
	}
	if quantity < 1 {
		return out, apierror.Validation("Quantity must be at least 1")
	}

	qty := decimal.NewFromInt(int64(quantity))
	subtotal := round2(originalPrice.Mul(qty))
	out.Subtotal = subtotal
	out.PaidItems = quantity

	switch p.Type {
	case model.PromoPercentage:
		if p.DiscountPct.LessThanOrEqual(decimal.Zero) || p.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
			return out, apierror.Validation("Percentage promotion requires discountPct between 0 and 100")
		}
		out.DiscountAmount = round2(subtotal.Mul(p.DiscountPct).Div(decimal.NewFromInt(100)))

	case model.PromoFixedAmount:
		if p.DiscountAmt.LessThanOrEqual(decimal.Zero) {
			return out, apierror.Validation("Fixed amount promotion requires discountAmt greater than 0")
		}
		discount := round2(p.DiscountAmt.Mul(qty))
		// Final price never goes negative
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
		out.DiscountAmount = discount

	case model.PromoBuyXGetY:
		if p.BuyQty < 1 || p.GetQty < 1 {
			return out, apierror.Validation("Buy X get Y promotion requires buyQty and getQty greater than 0")
		}
		setSize := p.BuyQty + p.GetQty
		sets := quantity / setSize
		free := sets * p.GetQty
		out.FreeItems = free
		out.PaidItems = quantity - free
		out.DiscountAmount = round2(originalPrice.Mul(decimal.NewFromInt(int64(free))))

	default:
		return out, apierror.Validation("Unknown promotion type")
	}

	out.FinalPrice = round2(subtotal.Sub(out.DiscountAmount))
	return out, nil
}

// PromotionService resolves promotion IDs, exposes the calculator over the
// API, and carries the promotion CRUD.
type PromotionService interface {
	Calculate(ctx context.Context, req dto.CalculateDiscountRequest) (*dto.CalculateDiscountResponse, error)
	Create(ctx context.Context, req dto.CreatePromotionRequest) (*dto.PromotionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PromotionResponse, error)
	List(ctx context.Context, activeOnly bool) ([]dto.PromotionResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdatePromotionRequest) (*dto.PromotionResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type promotionService struct {
	repo repository.PromotionRepository
}

func NewPromotionService(repo repository.PromotionRepository) PromotionService {
	return &promotionService{repo: repo}
}

func (s *promotionService) Calculate(ctx context.Context, req dto.CalculateDiscountRequest) (*dto.CalculateDiscountResponse, error) {
	id, err := uuid.Parse(req.PromotionID)
	if err != nil {
		return nil, apierror.Validation("Invalid promotion id")
	}
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Promotion not found")
	}

	breakdown, err := CalculateDiscount(promo, req.OriginalPrice, req.Quantity)
	if err != nil {
		return nil, err
	}

	resp := &dto.CalculateDiscountResponse{
		PromotionID:    promo.ID.String(),
		PromotionType:  promo.Type,
		Subtotal:       breakdown.Subtotal,
		DiscountAmount: breakdown.DiscountAmount,
		FinalPrice:     breakdown.FinalPrice,
		Savings:        breakdown.DiscountAmount,
	}
	if promo.Type == model.PromoBuyXGetY {
		free, paid := breakdown.FreeItems, breakdown.PaidItems
		resp.FreeItems = &free
		resp.PaidItems = &paid
	}
	return resp, nil
}

// validatePromotionFields enforces the per-type constraints shared by
// create and update: a rule must be usable by the calculator as stored.
func validatePromotionFields(p *model.Promotion) error {
	switch p.Type {
	case model.PromoPercentage:
		if p.DiscountPct.LessThanOrEqual(decimal.Zero) || p.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
			return apierror.Validation("Percentage promotion requires discountPct between 0 and 100")
		}
	case model.PromoFixedAmount:
		if p.DiscountAmt.LessThanOrEqual(decimal.Zero) {
			return apierror.Validation("Fixed amount promotion requires discountAmt greater than 0")
		}
	case model.PromoBuyXGetY:
		if p.BuyQty < 1 || p.GetQty < 1 {
			return apierror.Validation("Buy X get Y promotion requires buyQty and getQty greater than 0")
		}
	default:
		return apierror.Validation("Unknown promotion type")
	}
	return nil
}

func (s *promotionService) Create(ctx context.Context, req dto.CreatePromotionRequest) (*dto.PromotionResponse, error) {
	promo := &model.Promotion{
		Name:        req.Name,
		Type:        req.Type,
		DiscountPct: req.DiscountPct,
		DiscountAmt: req.DiscountAmt,
		BuyQty:      req.BuyQty,
		GetQty:      req.GetQty,
		Active:      true,
	}
	if err := validatePromotionFields(promo); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		return nil, err
	}
	resp := promotionToResponse(promo)
	return &resp, nil
}

func (s *promotionService) Get(ctx context.Context, id uuid.UUID) (*dto.PromotionResponse, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Promotion not found")
	}
	resp := promotionToResponse(promo)
	return &resp, nil
}

func (s *promotionService) List(ctx context.Context, activeOnly bool) ([]dto.PromotionResponse, error) {
	promos, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PromotionResponse, 0, len(promos))
	for i := range promos {
		out = append(out, promotionToResponse(&promos[i]))
	}
	return out, nil
}

func (s *promotionService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePromotionRequest) (*dto.PromotionResponse, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Promotion not found")
	}

	// Apply the patch to a copy and re-validate before saving: the stored
	// rule must stay usable by the calculator.
	next := *promo
	if req.Name != nil {
		next.Name = *req.Name
	}
	if req.DiscountPct != nil {
		next.DiscountPct = *req.DiscountPct
	}
	if req.DiscountAmt != nil {
		next.DiscountAmt = *req.DiscountAmt
	}
	if req.BuyQty != nil {
		next.BuyQty = *req.BuyQty
	}
	if req.GetQty != nil {
		next.GetQty = *req.GetQty
	}
	if err := validatePromotionFields(&next); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, err
	}
	resp := promotionToResponse(&next)
	return &resp, nil
}

func (s *promotionService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("Promotion not found")
	}
	return s.repo.Deactivate(ctx, id)
}

func promotionToResponse(p *model.Promotion) dto.PromotionResponse {
	return dto.PromotionResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Type:        p.Type,
		DiscountPct: p.DiscountPct,
		DiscountAmt: p.DiscountAmt,
		BuyQty:      p.BuyQty,
		GetQty:      p.GetQty,
		Active:      p.Active,
	}
}
