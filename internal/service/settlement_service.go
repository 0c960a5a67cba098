package service

import (
	"context"
	"fmt"
	"time"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/model"
	"poscore/internal/repository"
	"poscore/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementService orchestrates the transaction aggregate lifecycle:
// creation, metadata/status updates, post-creation line additions, and
// deletion with stock/loyalty reversal. Every mutating operation runs inside
// one DB transaction spanning the aggregate, the touched product rows, and
// the touched customer rows — it all commits or none of it does.
type SettlementService interface {
	Create(ctx context.Context, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.TransactionResponse, error)
	List(ctx context.Context, filter repository.TransactionFilter) (*dto.TransactionListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateTransactionRequest) (*dto.TransactionResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddLine(ctx context.Context, id uuid.UUID, req dto.AddLineRequest) (*dto.TransactionResponse, error)
}

type settlementService struct {
	transactions repository.TransactionRepository
	products     repository.ProductRepository
	branches     repository.BranchRepository
	customers    repository.CustomerRepository
	promotions   repository.PromotionRepository
	stock        StockService
	loyalty      LoyaltyService
	payments     PaymentService
	dispatcher   *worker.Dispatcher
	// earnRate: whole currency units of TotalGross per loyalty point
	earnRate int
}

func NewSettlementService(
	transactions repository.TransactionRepository,
	products repository.ProductRepository,
	branches repository.BranchRepository,
	customers repository.CustomerRepository,
	promotions repository.PromotionRepository,
	stock StockService,
	loyalty LoyaltyService,
	payments PaymentService,
	dispatcher *worker.Dispatcher,
	earnRate int,
) SettlementService {
	if earnRate < 1 {
		earnRate = 10
	}
	return &settlementService{
		transactions: transactions,
		products:     products,
		branches:     branches,
		customers:    customers,
		promotions:   promotions,
		stock:        stock,
		loyalty:      loyalty,
		payments:     payments,
		dispatcher:   dispatcher,
		earnRate:     earnRate,
	}
}

type resolvedLine struct {
	product   *model.Product
	promoID   *uuid.UUID
	qty       int
	discount  decimal.Decimal
	taxAmount decimal.Decimal
	lineTotal decimal.Decimal
}

// resolveLine prices one requested line: fetches the product, applies the
// promotion (if any) and computes tax on the discounted base.
func (s *settlementService) resolveLine(ctx context.Context, branchID uuid.UUID, productID string, qty int, promotionID *string) (*resolvedLine, error) {
	if qty < 1 {
		return nil, apierror.Validation("Line qty must be greater than 0")
	}
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, apierror.Validation("Invalid product id")
	}
	p, err := s.products.FindByID(ctx, pid)
	if err != nil {
		return nil, apierror.NotFound(fmt.Sprintf("Product %s not found", productID))
	}
	if !p.Active {
		return nil, apierror.BusinessRule(fmt.Sprintf("Product %s is inactive and cannot be sold", p.Name))
	}
	if p.BranchID != branchID {
		return nil, apierror.BusinessRule(fmt.Sprintf("Product %s belongs to a different branch", p.Name))
	}

	discount := decimal.Zero
	var promoRef *uuid.UUID
	if promotionID != nil {
		promoID, err := uuid.Parse(*promotionID)
		if err != nil {
			return nil, apierror.Validation("Invalid promotion id")
		}
		promo, err := s.promotions.FindByID(ctx, promoID)
		if err != nil {
			return nil, apierror.NotFound("Promotion not found")
		}
		breakdown, err := CalculateDiscount(promo, p.UnitPrice, qty)
		if err != nil {
			return nil, err
		}
		discount = breakdown.DiscountAmount
		promoRef = &promoID
	}

	base := p.UnitPrice.Mul(decimal.NewFromInt(int64(qty))).Sub(discount)
	tax := round2(base.Mul(p.TaxRatePct).Div(decimal.NewFromInt(100)))
	lineTotal := round2(base.Add(tax))

	return &resolvedLine{
		product:   p,
		promoID:   promoRef,
		qty:       qty,
		discount:  discount,
		taxAmount: tax,
		lineTotal: lineTotal,
	}, nil
}

// samePromotion reports whether two line promotion references match.
func samePromotion(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// earnedPoints computes the loyalty points a completed sale grants:
// floor(TotalGross / earnRate) scaled by the customer's tier multiplier.
func (s *settlementService) earnedPoints(totalGross decimal.Decimal, tier string) int {
	base := totalGross.Div(decimal.NewFromInt(int64(s.earnRate))).IntPart()
	switch tier {
	case model.TierGold:
		return int(decimal.NewFromInt(base).Mul(decimal.NewFromFloat(1.5)).IntPart())
	case model.TierPlatinum:
		return int(base * 2)
	default:
		return int(base)
	}
}

func (s *settlementService) Create(ctx context.Context, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, apierror.Validation("Invalid branch id")
	}
	branch, err := s.branches.FindByID(ctx, branchID)
	if err != nil {
		return nil, apierror.NotFound("Branch not found")
	}
	if !branch.Active {
		return nil, apierror.BusinessRule("Branch is not active")
	}

	var customer *model.Customer
	var customerID *uuid.UUID
	if req.CustomerID != nil {
		cid, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, apierror.Validation("Invalid customer id")
		}
		customer, err = s.customers.FindByID(ctx, cid)
		if err != nil {
			return nil, apierror.NotFound("Customer not found")
		}
		customerID = &cid
	}
	if req.RedeemPoints > 0 && customer == nil {
		return nil, apierror.Validation("Redeeming points requires a customer")
	}

	var cashierID *uuid.UUID
	if req.CashierID != nil {
		cid, err := uuid.Parse(*req.CashierID)
		if err != nil {
			return nil, apierror.Validation("Invalid cashier id")
		}
		cashierID = &cid
	}

	// Resolve and price every line before mutating anything
	resolved := make([]*resolvedLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		rl, err := s.resolveLine(ctx, branchID, line.ProductID, line.Qty, line.PromotionID)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rl)
	}

	// Stock sufficiency for ALL lines, aggregated per product, before any
	// decrement. The in-transaction row lock re-checks under concurrency.
	required := make(map[uuid.UUID]int)
	for _, rl := range resolved {
		required[rl.product.ID] += rl.qty
	}
	for _, rl := range resolved {
		if rl.product.StockQuantity < required[rl.product.ID] {
			return nil, apierror.BusinessRule("Insufficient stock")
		}
	}

	totalGross := decimal.Zero
	totalTax := decimal.Zero
	for _, rl := range resolved {
		totalGross = totalGross.Add(rl.lineTotal)
		totalTax = totalTax.Add(rl.taxAmount)
	}
	totalGross = round2(totalGross)
	totalTax = round2(totalTax)
	totalNet := round2(totalGross.Sub(totalTax))

	earned := 0
	if customer != nil {
		earned = s.earnedPoints(totalGross, customer.LoyaltyTier)
	}

	var txn model.Transaction
	txErr := runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		receiptNum, err := s.transactions.NextReceiptNumber(ctx, tx)
		if err != nil {
			return err
		}
		receipt := fmt.Sprintf("RCP-%06d", receiptNum)

		txn = model.Transaction{
			BranchID:            branchID,
			CustomerID:          customerID,
			CashierID:           cashierID,
			ReceiptNumber:       receipt,
			TotalGross:          totalGross,
			TotalTax:            totalTax,
			TotalNet:            totalNet,
			Status:              model.StatusPending,
			LoyaltyPointsEarned: earned,
			LoyaltyPointsUsed:   req.RedeemPoints,
			Metadata:            req.Metadata,
		}
		for _, rl := range resolved {
			txn.Lines = append(txn.Lines, model.TransactionLine{
				ProductID:   rl.product.ID,
				PromotionID: rl.promoID,
				UnitPrice:   rl.product.UnitPrice,
				Qty:         rl.qty,
				Discount:    rl.discount,
				TaxAmount:   rl.taxAmount,
				LineTotal:   rl.lineTotal,
			})
		}
		if err := s.transactions.CreateTx(ctx, tx, &txn); err != nil {
			return err
		}

		// Stock ledger: one movement per line, reason "sale"
		ref := txn.ID
		for _, rl := range resolved {
			note := fmt.Sprintf("Sale %s", receipt)
			if _, err := s.stock.AdjustTx(ctx, tx, rl.product.ID, -rl.qty, model.ReasonSale, &ref, note); err != nil {
				return err
			}
		}

		// Payments supplied at creation decide the initial status
		if len(req.Payments) > 0 {
			payments, status, err := s.payments.ApplyEntriesTx(ctx, tx, &txn, req.Payments)
			if err != nil {
				return err
			}
			txn.Payments = payments
			if status != txn.Status {
				txn.Status = status
				if err := s.transactions.UpdateTx(tx, txn.ID, map[string]interface{}{"status": status}); err != nil {
					return err
				}
			}
		}

		// Loyalty ledger: redemption and earning are separate entries
		if customer != nil {
			if req.RedeemPoints > 0 {
				reason := fmt.Sprintf("Redeemed on sale %s", receipt)
				if _, err := s.loyalty.AdjustTx(ctx, tx, customer.ID, -req.RedeemPoints, reason, &ref); err != nil {
					return err
				}
			}
			if earned > 0 {
				reason := fmt.Sprintf("Earned on sale %s", receipt)
				if _, err := s.loyalty.AdjustTx(ctx, tx, customer.ID, earned, reason, &ref); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("transaction_id", txn.ID.String()).
		Str("receipt", txn.ReceiptNumber).
		Str("status", txn.Status).
		Str("total_gross", txn.TotalGross.String()).
		Msg("transaction settled")

	if txn.Status == model.StatusCompleted && s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptPayload{TransactionID: txn.ID.String()}); err != nil {
			log.Error().Err(err).Str("transaction_id", txn.ID.String()).Msg("failed to enqueue receipt job")
		}
	}

	resp := transactionToResponse(&txn)
	for i, rl := range resolved {
		resp.Lines[i].Product = rl.product.Name
	}
	return resp, nil
}

func (s *settlementService) Get(ctx context.Context, id uuid.UUID) (*dto.TransactionResponse, error) {
	txn, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Transaction not found")
	}
	return transactionToResponse(txn), nil
}

func (s *settlementService) List(ctx context.Context, filter repository.TransactionFilter) (*dto.TransactionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	txns, total, err := s.transactions.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, *transactionToResponse(&txns[i]))
	}
	return &dto.TransactionListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Update mutates the only two things mutable post-creation: metadata and
// status. COMPLETED is terminal — moving back to PENDING is rejected.
func (s *settlementService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateTransactionRequest) (*dto.TransactionResponse, error) {
	txn, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Transaction not found")
	}

	fields := map[string]interface{}{}
	if req.Status != nil {
		if txn.Status == model.StatusCompleted && *req.Status == model.StatusPending {
			return nil, apierror.BusinessRule("Cannot change a completed transaction back to pending")
		}
		if *req.Status != txn.Status {
			fields["status"] = *req.Status
		}
	}
	if req.Metadata != nil {
		fields["metadata"] = req.Metadata
	}
	if len(fields) == 0 {
		return transactionToResponse(txn), nil
	}

	txErr := runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		return s.transactions.UpdateTx(tx, id, fields)
	})
	if txErr != nil {
		return nil, txErr
	}

	if status, ok := fields["status"]; ok {
		txn.Status = status.(string)
	}
	if req.Metadata != nil {
		txn.Metadata = req.Metadata
	}
	return transactionToResponse(txn), nil
}

// Delete removes a pending transaction and restores the ledgers it touched:
// stock comes back with reason "return", loyalty entries are reversed with
// compensating entries. Completed transactions cannot be deleted. The status
// check runs on the locked row so a payment racing the delete cannot flip
// the transaction to COMPLETED in between.
func (s *settlementService) Delete(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		txn, err := s.transactions.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return apierror.NotFound("Transaction not found")
		}
		if txn.Status == model.StatusCompleted {
			return apierror.BusinessRule("Cannot delete a completed transaction")
		}
		lines, err := s.transactions.FindLinesTx(tx, id)
		if err != nil {
			return err
		}

		ref := txn.ID
		note := fmt.Sprintf("Reversal of sale %s", txn.ReceiptNumber)
		for _, line := range lines {
			if _, err := s.stock.AdjustTx(ctx, tx, line.ProductID, line.Qty, model.ReasonReturn, &ref, note); err != nil {
				return err
			}
		}

		// Reverse loyalty from the ledger itself, not the cached counters:
		// every entry referencing this sale gets a compensating entry.
		if txn.CustomerID != nil {
			entries, err := s.customers.ListLoyaltyEntriesByReference(ctx, ref)
			if err != nil {
				return err
			}
			for _, e := range entries {
				delta := e.Points
				if e.Type == model.LoyaltyEarned {
					delta = -delta
				}
				if _, err := s.loyalty.AdjustTx(ctx, tx, e.CustomerID, delta, note, &ref); err != nil {
					return err
				}
			}
		}

		return s.transactions.DeleteCascadeTx(tx, id)
	})
}

// AddLine appends a product line to a pending transaction. A line for a
// product already present (same unit price, same promotion) merges
// quantities instead of duplicating; the merged line is repriced over the
// full quantity. The locked row is the source of truth inside the
// transaction: status, lines and totals are all re-read under the lock so
// concurrent payments and line additions serialize cleanly.
func (s *settlementService) AddLine(ctx context.Context, id uuid.UUID, req dto.AddLineRequest) (*dto.TransactionResponse, error) {
	txn, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Transaction not found")
	}
	if txn.Status == model.StatusCompleted {
		return nil, apierror.BusinessRule("Cannot modify a completed transaction")
	}

	rl, err := s.resolveLine(ctx, txn.BranchID, req.ProductID, req.Qty, req.PromotionID)
	if err != nil {
		return nil, err
	}
	if rl.product.StockQuantity < rl.qty {
		return nil, apierror.BusinessRule("Insufficient stock")
	}

	txErr := runTx(ctx, s.transactions.DB(), func(tx *gorm.DB) error {
		locked, err := s.transactions.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return apierror.NotFound("Transaction not found")
		}
		// A payment may have completed the transaction between the read
		// above and taking the lock.
		if locked.Status == model.StatusCompleted {
			return apierror.BusinessRule("Cannot modify a completed transaction")
		}
		lines, err := s.transactions.FindLinesTx(tx, id)
		if err != nil {
			return err
		}

		var merged *model.TransactionLine
		for i := range lines {
			line := &lines[i]
			if line.ProductID == rl.product.ID &&
				line.UnitPrice.Equal(rl.product.UnitPrice) &&
				samePromotion(line.PromotionID, rl.promoID) {
				merged = line
				break
			}
		}

		var deltaGross, deltaTax decimal.Decimal
		if merged != nil {
			newQty := merged.Qty + rl.qty
			reprice, err := s.resolveLine(ctx, locked.BranchID, req.ProductID, newQty, req.PromotionID)
			if err != nil {
				return err
			}
			deltaGross = reprice.lineTotal.Sub(merged.LineTotal)
			deltaTax = reprice.taxAmount.Sub(merged.TaxAmount)

			merged.Qty = newQty
			merged.Discount = reprice.discount
			merged.TaxAmount = reprice.taxAmount
			merged.LineTotal = reprice.lineTotal
			if err := s.transactions.UpdateLineTx(tx, merged); err != nil {
				return err
			}
		} else {
			line := model.TransactionLine{
				TransactionID: locked.ID,
				ProductID:     rl.product.ID,
				PromotionID:   rl.promoID,
				UnitPrice:     rl.product.UnitPrice,
				Qty:           rl.qty,
				Discount:      rl.discount,
				TaxAmount:     rl.taxAmount,
				LineTotal:     rl.lineTotal,
			}
			if err := s.transactions.CreateLineTx(tx, &line); err != nil {
				return err
			}
			deltaGross = rl.lineTotal
			deltaTax = rl.taxAmount
		}

		newGross := round2(locked.TotalGross.Add(deltaGross))
		newTax := round2(locked.TotalTax.Add(deltaTax))
		if err := s.transactions.UpdateTx(tx, locked.ID, map[string]interface{}{
			"total_gross": newGross,
			"total_tax":   newTax,
			"total_net":   round2(newGross.Sub(newTax)),
		}); err != nil {
			return err
		}

		ref := locked.ID
		note := fmt.Sprintf("Sale %s", locked.ReceiptNumber)
		_, err = s.stock.AdjustTx(ctx, tx, rl.product.ID, -rl.qty, model.ReasonSale, &ref, note)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	updated, err := s.transactions.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Transaction not found")
	}
	return transactionToResponse(updated), nil
}

func transactionToResponse(t *model.Transaction) *dto.TransactionResponse {
	lines := make([]dto.TransactionLineResponse, 0, len(t.Lines))
	for _, line := range t.Lines {
		name := ""
		if line.Product != nil {
			name = line.Product.Name
		}
		lr := dto.TransactionLineResponse{
			ID:        line.ID.String(),
			ProductID: line.ProductID.String(),
			Product:   name,
			UnitPrice: line.UnitPrice,
			Qty:       line.Qty,
			Discount:  line.Discount,
			TaxAmount: line.TaxAmount,
			LineTotal: line.LineTotal,
		}
		if line.PromotionID != nil {
			s := line.PromotionID.String()
			lr.PromotionID = &s
		}
		lines = append(lines, lr)
	}
	payments := make([]dto.PaymentResponse, 0, len(t.Payments))
	for i := range t.Payments {
		payments = append(payments, paymentToResponse(&t.Payments[i]))
	}

	resp := &dto.TransactionResponse{
		ID:                  t.ID.String(),
		BranchID:            t.BranchID.String(),
		ReceiptNumber:       t.ReceiptNumber,
		TotalGross:          t.TotalGross,
		TotalTax:            t.TotalTax,
		TotalNet:            t.TotalNet,
		Status:              t.Status,
		LoyaltyPointsEarned: t.LoyaltyPointsEarned,
		LoyaltyPointsUsed:   t.LoyaltyPointsUsed,
		Lines:               lines,
		Payments:            payments,
		Metadata:            t.Metadata,
		CreatedAt:           t.CreatedAt.Format(time.RFC3339),
	}
	if t.CustomerID != nil {
		s := t.CustomerID.String()
		resp.CustomerID = &s
	}
	if t.CashierID != nil {
		s := t.CashierID.String()
		resp.CashierID = &s
	}
	return resp
}
