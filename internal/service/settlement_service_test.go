package service_test

import (
	"context"
	"testing"

	"poscore/internal/dto"
	"poscore/internal/model"
	"poscore/internal/repository"
	"poscore/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlementFixture struct {
	svc          service.SettlementService
	transactions *stubTransactionRepo
	products     *stubProductRepo
	movements    *stubMovementRepo
	customers    *stubCustomerRepo
	promotions   *stubPromotionRepo
	branches     *stubBranchRepo
	branch       *model.Branch
}

func newSettlementFixture() *settlementFixture {
	f := &settlementFixture{
		transactions: newStubTransactionRepo(),
		products:     newStubProductRepo(),
		movements:    &stubMovementRepo{},
		customers:    newStubCustomerRepo(),
		promotions:   newStubPromotionRepo(),
		branches:     newStubBranchRepo(),
	}
	f.branch = f.branches.seed("MAIN")

	stockSvc := service.NewStockService(f.products, f.movements)
	loyaltySvc := service.NewLoyaltyService(f.customers)
	paymentSvc := service.NewPaymentService(f.transactions, nil)
	f.svc = service.NewSettlementService(
		f.transactions, f.products, f.branches, f.customers, f.promotions,
		stockSvc, loyaltySvc, paymentSvc, nil, 10,
	)
	return f
}

// newSettlementServiceWith rebuilds the service around a wrapped
// transaction repository, reusing the fixture's other stubs.
func newSettlementServiceWith(f *settlementFixture, transactions repository.TransactionRepository) service.SettlementService {
	stockSvc := service.NewStockService(f.products, f.movements)
	loyaltySvc := service.NewLoyaltyService(f.customers)
	paymentSvc := service.NewPaymentService(transactions, nil)
	return service.NewSettlementService(
		transactions, f.products, f.branches, f.customers, f.promotions,
		stockSvc, loyaltySvc, paymentSvc, nil, 10,
	)
}

func TestSettlementCreate_TotalsAndReceipt(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("COF-250", f.branch.ID, decimal.NewFromInt(10), decimal.NewFromInt(10), 20)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines: []dto.TransactionLineRequest{
			{ProductID: p.ID.String(), Qty: 2},
		},
	})
	require.NoError(t, err)

	// base 20.00 + 10% tax 2.00
	assert.Equal(t, "22", resp.TotalGross.String())
	assert.Equal(t, "2", resp.TotalTax.String())
	assert.Equal(t, "20", resp.TotalNet.String())
	assert.Equal(t, model.StatusPending, resp.Status)
	assert.Equal(t, "RCP-000001", resp.ReceiptNumber)

	// Stock decremented through the ledger with a movement referencing the sale
	assert.Equal(t, 18, f.products.products[p.ID].StockQuantity)
	require.Len(t, f.movements.movements, 1)
	mov := f.movements.movements[0]
	assert.Equal(t, -2, mov.Change)
	assert.Equal(t, model.ReasonSale, mov.Reason)
	require.NotNil(t, mov.ReferenceID)
	assert.Equal(t, resp.ID, mov.ReferenceID.String())
}

func TestSettlementCreate_FullPaymentCompletes(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("MLK-1L", f.branch.ID, decimal.NewFromInt(5), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 2}},
		Payments: []dto.PaymentEntryRequest{{Method: model.MethodCash, Amount: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, resp.Status)
	require.Len(t, resp.Payments, 1)
}

func TestSettlementCreate_PartialPaymentStaysPending(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("MLK-1L", f.branch.ID, decimal.NewFromInt(5), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 2}},
		Payments: []dto.PaymentEntryRequest{{Method: model.MethodCash, Amount: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, resp.Status)
}

func TestSettlementCreate_PromotionAppliesPerLine(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("CHO-100", f.branch.ID, decimal.NewFromInt(10), decimal.Zero, 10)
	promo := f.promotions.seed(model.Promotion{
		Name:   "Buy 2 get 1",
		Type:   model.PromoBuyXGetY,
		BuyQty: 2,
		GetQty: 1,
		Active: true,
	})
	promoID := promo.ID.String()

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines: []dto.TransactionLineRequest{
			{ProductID: p.ID.String(), Qty: 3, PromotionID: &promoID},
		},
	})
	require.NoError(t, err)

	// 3 × 10.00 with one item free → 20.00
	assert.Equal(t, "20", resp.TotalGross.String())
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "10", resp.Lines[0].Discount.String())
	// All 3 units leave stock even though one is free
	assert.Equal(t, 7, f.products.products[p.ID].StockQuantity)
}

func TestSettlementCreate_InsufficientStockChecksAllLinesFirst(t *testing.T) {
	f := newSettlementFixture()
	a := f.products.seed("A", f.branch.ID, decimal.NewFromInt(1), decimal.Zero, 10)
	b := f.products.seed("B", f.branch.ID, decimal.NewFromInt(1), decimal.Zero, 1)

	_, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines: []dto.TransactionLineRequest{
			{ProductID: a.ID.String(), Qty: 5},
			{ProductID: b.ID.String(), Qty: 2}, // only 1 on hand
		},
	})
	assert.ErrorContains(t, err, "Insufficient stock")

	// Nothing was decremented, no transaction stored
	assert.Equal(t, 10, f.products.products[a.ID].StockQuantity)
	assert.Equal(t, 1, f.products.products[b.ID].StockQuantity)
	assert.Empty(t, f.transactions.transactions)
	assert.Empty(t, f.movements.movements)
}

func TestSettlementCreate_AggregatesRepeatedProduct(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(1), decimal.Zero, 5)

	// Two lines of 3 each need 6 total against 5 on hand
	_, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines: []dto.TransactionLineRequest{
			{ProductID: p.ID.String(), Qty: 3},
			{ProductID: p.ID.String(), Qty: 3},
		},
	})
	assert.ErrorContains(t, err, "Insufficient stock")
}

func TestSettlementCreate_LoyaltyEarnAndRedeem(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("COF-250", f.branch.ID, decimal.NewFromInt(50), decimal.Zero, 10)
	customer := f.customers.seed("Grace", model.TierGold, 40)
	customerID := customer.ID.String()

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID:     f.branch.ID.String(),
		CustomerID:   &customerID,
		Lines:        []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 2}},
		RedeemPoints: 30,
	})
	require.NoError(t, err)

	// gross 100.00, earn rate 10, GOLD ×1.5 → floor(100/10) × 1.5 = 15
	assert.Equal(t, 15, resp.LoyaltyPointsEarned)
	assert.Equal(t, 30, resp.LoyaltyPointsUsed)

	// Two ledger entries: redemption first, then earn — never netted
	require.Len(t, f.customers.entries, 2)
	assert.Equal(t, model.LoyaltyRedeemed, f.customers.entries[0].Type)
	assert.Equal(t, 30, f.customers.entries[0].Points)
	assert.Equal(t, model.LoyaltyEarned, f.customers.entries[1].Type)
	assert.Equal(t, 15, f.customers.entries[1].Points)

	// 40 - 30 + 15 = 25
	assert.Equal(t, 25, f.customers.customers[customer.ID].LoyaltyPoints)
}

func TestSettlementCreate_RedeemWithoutCustomer(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(1), decimal.Zero, 5)

	_, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID:     f.branch.ID.String(),
		Lines:        []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
		RedeemPoints: 10,
	})
	assert.ErrorContains(t, err, "Redeeming points requires a customer")
}

func TestSettlementCreate_InactiveProduct(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(1), decimal.Zero, 5)
	p.Active = false

	_, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
	})
	assert.ErrorContains(t, err, "inactive")
}

func TestSettlementCreate_ProductFromOtherBranch(t *testing.T) {
	f := newSettlementFixture()
	other := f.branches.seed("OTHER")
	p := f.products.seed("A", other.ID, decimal.NewFromInt(1), decimal.Zero, 5)

	_, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
	})
	assert.ErrorContains(t, err, "different branch")
}

func TestSettlementCreate_ReceiptNumbersIncrement(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(1), decimal.Zero, 50)

	first, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
	})
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "RCP-000001", first.ReceiptNumber)
	assert.Equal(t, "RCP-000002", second.ReceiptNumber)
}

func TestSettlementUpdate_CompletedBackToPendingRejected(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(5), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
		Payments: []dto.PaymentEntryRequest{{Method: model.MethodCash, Amount: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, resp.Status)

	pending := model.StatusPending
	_, err = f.svc.Update(context.Background(), uuid.MustParse(resp.ID), dto.UpdateTransactionRequest{Status: &pending})
	assert.ErrorContains(t, err, "Cannot change a completed transaction back to pending")
}

func TestSettlementDelete_RestoresLedgers(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(50), decimal.Zero, 10)
	customer := f.customers.seed("Ada", model.TierStandard, 50)
	customerID := customer.ID.String()

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID:     f.branch.ID.String(),
		CustomerID:   &customerID,
		Lines:        []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 3}},
		RedeemPoints: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, f.products.products[p.ID].StockQuantity)
	// gross 150.00 → earns 15; balance 50 - 20 + 15 = 45
	assert.Equal(t, 45, f.customers.customers[customer.ID].LoyaltyPoints)

	err = f.svc.Delete(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)

	// Stock restored through a compensating "return" movement
	assert.Equal(t, 10, f.products.products[p.ID].StockQuantity)
	require.Len(t, f.movements.movements, 2)
	assert.Equal(t, model.ReasonReturn, f.movements.movements[1].Reason)
	assert.Equal(t, 3, f.movements.movements[1].Change)

	// Loyalty reversed with compensating entries: -15 earned, +20 redeemed
	assert.Equal(t, 50, f.customers.customers[customer.ID].LoyaltyPoints)
	assert.Len(t, f.customers.entries, 4)

	// Aggregate gone
	assert.Empty(t, f.transactions.transactions)
}

func TestSettlementDelete_CompletedRejected(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(5), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
		Payments: []dto.PaymentEntryRequest{{Method: model.MethodCash, Amount: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), uuid.MustParse(resp.ID))
	assert.ErrorContains(t, err, "Cannot delete a completed transaction")
}

func TestSettlementAddLine_MergesSameProduct(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(10), decimal.NewFromInt(10), 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 2}},
	})
	require.NoError(t, err)

	updated, err := f.svc.AddLine(context.Background(), uuid.MustParse(resp.ID), dto.AddLineRequest{
		ProductID: p.ID.String(),
		Qty:       1,
	})
	require.NoError(t, err)

	// Still one line, quantities merged and repriced over the full quantity
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, 3, updated.Lines[0].Qty)
	assert.Equal(t, "33", updated.TotalGross.String())
	assert.Equal(t, "3", updated.TotalTax.String())
	assert.Equal(t, "30", updated.TotalNet.String())

	// The extra unit also left stock
	assert.Equal(t, 7, f.products.products[p.ID].StockQuantity)
}

func TestSettlementAddLine_NewProductAppends(t *testing.T) {
	f := newSettlementFixture()
	a := f.products.seed("A", f.branch.ID, decimal.NewFromInt(10), decimal.Zero, 10)
	b := f.products.seed("B", f.branch.ID, decimal.NewFromInt(4), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: a.ID.String(), Qty: 1}},
	})
	require.NoError(t, err)

	updated, err := f.svc.AddLine(context.Background(), uuid.MustParse(resp.ID), dto.AddLineRequest{
		ProductID: b.ID.String(),
		Qty:       2,
	})
	require.NoError(t, err)
	assert.Len(t, updated.Lines, 2)
	assert.Equal(t, "18", updated.TotalGross.String())
}

func TestSettlementAddLine_RecheckStatusUnderLock(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(10), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, resp.Status)

	// A payment completes the transaction after the snapshot read but
	// before the row lock; the guard must fire on the locked row.
	svc := newSettlementServiceWith(f, &completedUnderLockRepo{f.transactions})
	_, err = svc.AddLine(context.Background(), uuid.MustParse(resp.ID), dto.AddLineRequest{
		ProductID: p.ID.String(),
		Qty:       1,
	})
	assert.ErrorContains(t, err, "Cannot modify a completed transaction")

	// Nothing was mutated
	assert.Equal(t, 9, f.products.products[p.ID].StockQuantity)
	assert.Len(t, f.movements.movements, 1)
}

func TestSettlementDelete_RecheckStatusUnderLock(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(10), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
	})
	require.NoError(t, err)

	svc := newSettlementServiceWith(f, &completedUnderLockRepo{f.transactions})
	err = svc.Delete(context.Background(), uuid.MustParse(resp.ID))
	assert.ErrorContains(t, err, "Cannot delete a completed transaction")

	// Aggregate and stock untouched
	assert.Len(t, f.transactions.transactions, 1)
	assert.Equal(t, 9, f.products.products[p.ID].StockQuantity)
	assert.Len(t, f.movements.movements, 1)
}

func TestSettlementAddLine_TotalsFromLockedRow(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(10), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, "10", resp.TotalGross.String())

	// A concurrent addition bumped the totals by 5 after the snapshot
	// read; the delta must apply on top of the locked row's totals.
	svc := newSettlementServiceWith(f, &bumpedTotalsRepo{
		stubTransactionRepo: f.transactions,
		bump:                decimal.NewFromInt(5),
	})
	_, err = svc.AddLine(context.Background(), uuid.MustParse(resp.ID), dto.AddLineRequest{
		ProductID: p.ID.String(),
		Qty:       1,
	})
	require.NoError(t, err)

	// 10 (snapshot) + 5 (concurrent) + 10 (new unit) = 25
	stored := f.transactions.transactions[uuid.MustParse(resp.ID)]
	assert.Equal(t, "25", stored.TotalGross.String())
	assert.Equal(t, "25", stored.TotalNet.String())
}

func TestSettlementAddLine_KeepsSeparatePromotionLines(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(10), decimal.Zero, 10)
	promo := f.promotions.seed(model.Promotion{
		Name:   "Buy 2 get 1",
		Type:   model.PromoBuyXGetY,
		BuyQty: 2,
		GetQty: 1,
		Active: true,
	})
	promoID := promo.ID.String()

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines: []dto.TransactionLineRequest{
			{ProductID: p.ID.String(), Qty: 3, PromotionID: &promoID},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "20", resp.TotalGross.String())

	// Same product without the promotion: a separate line, the
	// discounted one stays intact.
	updated, err := f.svc.AddLine(context.Background(), uuid.MustParse(resp.ID), dto.AddLineRequest{
		ProductID: p.ID.String(),
		Qty:       1,
	})
	require.NoError(t, err)

	require.Len(t, updated.Lines, 2)
	assert.Equal(t, 3, updated.Lines[0].Qty)
	assert.Equal(t, "10", updated.Lines[0].Discount.String())
	require.NotNil(t, updated.Lines[0].PromotionID)
	assert.Equal(t, promoID, *updated.Lines[0].PromotionID)
	assert.Nil(t, updated.Lines[1].PromotionID)
	assert.Equal(t, "30", updated.TotalGross.String())
}

func TestSettlementAddLine_CompletedRejected(t *testing.T) {
	f := newSettlementFixture()
	p := f.products.seed("A", f.branch.ID, decimal.NewFromInt(5), decimal.Zero, 10)

	resp, err := f.svc.Create(context.Background(), dto.CreateTransactionRequest{
		BranchID: f.branch.ID.String(),
		Lines:    []dto.TransactionLineRequest{{ProductID: p.ID.String(), Qty: 1}},
		Payments: []dto.PaymentEntryRequest{{Method: model.MethodCash, Amount: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	_, err = f.svc.AddLine(context.Background(), uuid.MustParse(resp.ID), dto.AddLineRequest{
		ProductID: p.ID.String(),
		Qty:       1,
	})
	assert.ErrorContains(t, err, "Cannot modify a completed transaction")
}
