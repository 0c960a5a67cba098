package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionFilter is bound from the query string of GET /transactions.
type TransactionFilter struct {
	BranchID string `form:"branchId"`
	Status   string `form:"status"` // PENDING | COMPLETED | all
	Date     string `form:"date"`   // YYYY-MM-DD
	Page     int    `form:"page,default=1" validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// TransactionRepository is the data access contract for the transaction
// aggregate (transaction + lines + payments). Tx-suffixed methods must run
// inside the caller's gorm transaction so the whole settlement commits or
// nothing does.
type TransactionRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, t *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	// FindByIDForUpdateTx locks the transaction row (SELECT ... FOR UPDATE)
	// so concurrent payment-balance checks serialize.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	NextReceiptNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	UpdateTx(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	DeleteCascadeTx(tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error)

	SumPaymentsTx(tx *gorm.DB, transactionID uuid.UUID, exclude *uuid.UUID) (decimal.Decimal, error)
	CreatePaymentTx(tx *gorm.DB, p *model.Payment) error
	FindPaymentByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	UpdatePaymentAmountTx(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error
	DeletePaymentTx(tx *gorm.DB, id uuid.UUID) error

	CreateLineTx(tx *gorm.DB, l *model.TransactionLine) error
	UpdateLineTx(tx *gorm.DB, l *model.TransactionLine) error
	// FindLinesTx reads the transaction's lines inside the caller's
	// transaction, after the row lock has been taken.
	FindLinesTx(tx *gorm.DB, transactionID uuid.UUID) ([]model.TransactionLine, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository { return &transactionRepo{db: db} }

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) CreateTx(ctx context.Context, tx *gorm.DB, t *model.Transaction) error {
	return tx.WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Lines.Product").Preload("Payments").
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *transactionRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *transactionRepo) NextReceiptNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	// PostgreSQL sequence keeps receipt numbers unique under concurrency
	var num int64
	err := tx.WithContext(ctx).Raw("SELECT nextval('transactions_receipt_seq')").Scan(&num).Error
	return num, err
}

func (r *transactionRepo) UpdateTx(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.Transaction{}).Where("id = ?", id).Updates(fields).Error
}

func (r *transactionRepo) DeleteCascadeTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("transaction_id = ?", id).Delete(&model.Payment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("transaction_id = ?", id).Delete(&model.TransactionLine{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Transaction{}, "id = ?", id).Error
}

func (r *transactionRepo) List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error) {
	var txns []model.Transaction
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Transaction{})
	if filter.BranchID != "" {
		q = q.Where("branch_id = ?", filter.BranchID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Lines.Product").Preload("Payments").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&txns).Error
	return txns, total, err
}

func (r *transactionRepo) SumPaymentsTx(tx *gorm.DB, transactionID uuid.UUID, exclude *uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	q := tx.Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("transaction_id = ?", transactionID)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}
	if err := q.Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *transactionRepo) CreatePaymentTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *transactionRepo) FindPaymentByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *transactionRepo) UpdatePaymentAmountTx(tx *gorm.DB, id uuid.UUID, amount decimal.Decimal) error {
	return tx.Model(&model.Payment{}).Where("id = ?", id).Update("amount", amount).Error
}

func (r *transactionRepo) DeletePaymentTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Payment{}, "id = ?", id).Error
}

func (r *transactionRepo) CreateLineTx(tx *gorm.DB, l *model.TransactionLine) error {
	return tx.Create(l).Error
}

func (r *transactionRepo) UpdateLineTx(tx *gorm.DB, l *model.TransactionLine) error {
	return tx.Save(l).Error
}

func (r *transactionRepo) FindLinesTx(tx *gorm.DB, transactionID uuid.UUID) ([]model.TransactionLine, error) {
	var lines []model.TransactionLine
	err := tx.Preload("Product").
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}
