package service_test

import (
	"context"
	"errors"

	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errNotFound = errors.New("record not found")

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubTransactionRepo is an in-memory TransactionRepository for testing.
// Tx parameters are ignored; services pass nil in unit test mode.
type stubTransactionRepo struct {
	transactions map[uuid.UUID]*model.Transaction
	payments     map[uuid.UUID]*model.Payment
	receiptSeq   int64
}

func newStubTransactionRepo() *stubTransactionRepo {
	return &stubTransactionRepo{
		transactions: make(map[uuid.UUID]*model.Transaction),
		payments:     make(map[uuid.UUID]*model.Payment),
	}
}

func (r *stubTransactionRepo) CreateTx(_ context.Context, _ *gorm.DB, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	for i := range t.Lines {
		if t.Lines[i].ID == uuid.Nil {
			t.Lines[i].ID = uuid.New()
		}
		t.Lines[i].TransactionID = t.ID
	}
	r.transactions[t.ID] = t
	return nil
}

func (r *stubTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, ok := r.transactions[id]
	if !ok {
		return nil, errNotFound
	}
	return t, nil
}

func (r *stubTransactionRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	t, ok := r.transactions[id]
	if !ok {
		return nil, errNotFound
	}
	return t, nil
}

func (r *stubTransactionRepo) NextReceiptNumber(_ context.Context, _ *gorm.DB) (int64, error) {
	r.receiptSeq++
	return r.receiptSeq, nil
}

func (r *stubTransactionRepo) UpdateTx(_ *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	t, ok := r.transactions[id]
	if !ok {
		return errNotFound
	}
	if v, ok := fields["status"]; ok {
		t.Status = v.(string)
	}
	if v, ok := fields["total_gross"]; ok {
		t.TotalGross = v.(decimal.Decimal)
	}
	if v, ok := fields["total_tax"]; ok {
		t.TotalTax = v.(decimal.Decimal)
	}
	if v, ok := fields["total_net"]; ok {
		t.TotalNet = v.(decimal.Decimal)
	}
	return nil
}

func (r *stubTransactionRepo) DeleteCascadeTx(_ *gorm.DB, id uuid.UUID) error {
	for pid, p := range r.payments {
		if p.TransactionID == id {
			delete(r.payments, pid)
		}
	}
	delete(r.transactions, id)
	return nil
}

func (r *stubTransactionRepo) List(_ context.Context, _ repository.TransactionFilter) ([]model.Transaction, int64, error) {
	out := make([]model.Transaction, 0, len(r.transactions))
	for _, t := range r.transactions {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *stubTransactionRepo) SumPaymentsTx(_ *gorm.DB, transactionID uuid.UUID, exclude *uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payments {
		if p.TransactionID != transactionID {
			continue
		}
		if exclude != nil && p.ID == *exclude {
			continue
		}
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

func (r *stubTransactionRepo) CreatePaymentTx(_ *gorm.DB, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *stubTransactionRepo) FindPaymentByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubTransactionRepo) UpdatePaymentAmountTx(_ *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	p, ok := r.payments[id]
	if !ok {
		return errNotFound
	}
	p.Amount = amount
	return nil
}

func (r *stubTransactionRepo) DeletePaymentTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.payments, id)
	return nil
}

func (r *stubTransactionRepo) CreateLineTx(_ *gorm.DB, l *model.TransactionLine) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	t, ok := r.transactions[l.TransactionID]
	if !ok {
		return errNotFound
	}
	t.Lines = append(t.Lines, *l)
	return nil
}

func (r *stubTransactionRepo) UpdateLineTx(_ *gorm.DB, l *model.TransactionLine) error {
	t, ok := r.transactions[l.TransactionID]
	if !ok {
		return errNotFound
	}
	for i := range t.Lines {
		if t.Lines[i].ID == l.ID {
			t.Lines[i] = *l
			return nil
		}
	}
	return errNotFound
}

func (r *stubTransactionRepo) FindLinesTx(_ *gorm.DB, transactionID uuid.UUID) ([]model.TransactionLine, error) {
	t, ok := r.transactions[transactionID]
	if !ok {
		return nil, errNotFound
	}
	lines := make([]model.TransactionLine, len(t.Lines))
	copy(lines, t.Lines)
	return lines, nil
}

func (r *stubTransactionRepo) DB() *gorm.DB { return nil }

var _ repository.TransactionRepository = (*stubTransactionRepo)(nil)

// completedUnderLockRepo reports the row as PENDING on plain reads but
// COMPLETED once the row lock is taken, mimicking a payment that lands
// between the snapshot read and the lock acquisition.
type completedUnderLockRepo struct {
	*stubTransactionRepo
}

func (r *completedUnderLockRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	t, err := r.stubTransactionRepo.FindByIDForUpdateTx(tx, id)
	if err != nil {
		return nil, err
	}
	locked := *t
	locked.Status = model.StatusCompleted
	return &locked, nil
}

// bumpedTotalsRepo inflates the totals visible under the lock, mimicking a
// concurrent line addition that committed after the snapshot read.
type bumpedTotalsRepo struct {
	*stubTransactionRepo
	bump decimal.Decimal
}

func (r *bumpedTotalsRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	t, err := r.stubTransactionRepo.FindByIDForUpdateTx(tx, id)
	if err != nil {
		return nil, err
	}
	locked := *t
	locked.TotalGross = locked.TotalGross.Add(r.bump)
	locked.TotalNet = locked.TotalNet.Add(r.bump)
	return &locked, nil
}

// stubProductRepo is an in-memory ProductRepository.
type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) seed(name string, branchID uuid.UUID, price decimal.Decimal, taxPct decimal.Decimal, stock int) *model.Product {
	p := &model.Product{
		ID:            uuid.New(),
		SKU:           name,
		Name:          name,
		BranchID:      branchID,
		UnitPrice:     price,
		TaxRatePct:    taxPct,
		StockQuantity: stock,
		ReorderLevel:  0,
		Active:        true,
	}
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, errNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ repository.ProductFilter) ([]model.Product, int64, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return errNotFound
	}
	p.Active = false
	return nil
}

func (r *stubProductRepo) CountByBranch(_ context.Context, branchID uuid.UUID) (int64, error) {
	var n int64
	for _, p := range r.products {
		if p.BranchID == branchID && p.Active {
			n++
		}
	}
	return n, nil
}

func (r *stubProductRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errNotFound
	}
	// Return a snapshot, as a real repository scan would; later stock
	// updates must not mutate the row the caller already read.
	locked := *p
	return &locked, nil
}

func (r *stubProductRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, newQuantity int) error {
	p, ok := r.products[id]
	if !ok {
		return errNotFound
	}
	p.StockQuantity = newQuantity
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubMovementRepo captures appended stock movements for assertion.
type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.Reason != "" && m.Reason != filter.Reason {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// stubCustomerRepo is an in-memory CustomerRepository with its loyalty ledger.
type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
	entries   []model.LoyaltyTransaction
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *stubCustomerRepo) seed(name, tier string, points int) *model.Customer {
	c := &model.Customer{
		ID:            uuid.New(),
		Name:          name,
		LoyaltyPoints: points,
		LoyaltyTier:   tier,
		Active:        true,
	}
	r.customers[c.ID] = c
	return c
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) List(_ context.Context, _, _ int) ([]model.Customer, int64, error) {
	out := make([]model.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *stubCustomerRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	c, ok := r.customers[id]
	if !ok {
		return errNotFound
	}
	c.Active = false
	return nil
}

func (r *stubCustomerRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (r *stubCustomerRepo) UpdatePointsTx(_ *gorm.DB, id uuid.UUID, newBalance int) error {
	c, ok := r.customers[id]
	if !ok {
		return errNotFound
	}
	c.LoyaltyPoints = newBalance
	return nil
}

func (r *stubCustomerRepo) CreateLoyaltyEntryTx(_ *gorm.DB, e *model.LoyaltyTransaction) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubCustomerRepo) ListLoyaltyEntries(_ context.Context, customerID uuid.UUID, _, _ int) ([]model.LoyaltyTransaction, int64, error) {
	var out []model.LoyaltyTransaction
	for _, e := range r.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubCustomerRepo) ListLoyaltyEntriesByReference(_ context.Context, referenceID uuid.UUID) ([]model.LoyaltyTransaction, error) {
	var out []model.LoyaltyTransaction
	for _, e := range r.entries {
		if e.ReferenceID != nil && *e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubCustomerRepo) DB() *gorm.DB { return nil }

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// stubPromotionRepo is an in-memory PromotionRepository.
type stubPromotionRepo struct {
	promotions map[uuid.UUID]*model.Promotion
}

func newStubPromotionRepo() *stubPromotionRepo {
	return &stubPromotionRepo{promotions: make(map[uuid.UUID]*model.Promotion)}
}

func (r *stubPromotionRepo) seed(p model.Promotion) *model.Promotion {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.promotions[p.ID] = &p
	return &p
}

func (r *stubPromotionRepo) Create(_ context.Context, p *model.Promotion) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.promotions[p.ID] = p
	return nil
}

func (r *stubPromotionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, ok := r.promotions[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (r *stubPromotionRepo) List(_ context.Context, activeOnly bool) ([]model.Promotion, error) {
	var out []model.Promotion
	for _, p := range r.promotions {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubPromotionRepo) Update(_ context.Context, p *model.Promotion) error {
	r.promotions[p.ID] = p
	return nil
}

func (r *stubPromotionRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := r.promotions[id]
	if !ok {
		return errNotFound
	}
	p.Active = false
	return nil
}

var _ repository.PromotionRepository = (*stubPromotionRepo)(nil)

// stubBranchRepo is an in-memory BranchRepository.
type stubBranchRepo struct {
	branches map[uuid.UUID]*model.Branch
}

func newStubBranchRepo() *stubBranchRepo {
	return &stubBranchRepo{branches: make(map[uuid.UUID]*model.Branch)}
}

func (r *stubBranchRepo) seed(code string) *model.Branch {
	b := &model.Branch{ID: uuid.New(), Code: code, Name: code, Active: true}
	r.branches[b.ID] = b
	return b
}

func (r *stubBranchRepo) Create(_ context.Context, b *model.Branch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.branches[b.ID] = b
	return nil
}

func (r *stubBranchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, errNotFound
	}
	return b, nil
}

func (r *stubBranchRepo) FindByCode(_ context.Context, code string) (*model.Branch, error) {
	for _, b := range r.branches {
		if b.Code == code {
			return b, nil
		}
	}
	return nil, errNotFound
}

func (r *stubBranchRepo) List(_ context.Context) ([]model.Branch, error) {
	out := make([]model.Branch, 0, len(r.branches))
	for _, b := range r.branches {
		out = append(out, *b)
	}
	return out, nil
}

func (r *stubBranchRepo) Update(_ context.Context, b *model.Branch) error {
	r.branches[b.ID] = b
	return nil
}

func (r *stubBranchRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	b, ok := r.branches[id]
	if !ok {
		return errNotFound
	}
	b.Active = false
	return nil
}

var _ repository.BranchRepository = (*stubBranchRepo)(nil)
