package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerRepository is the data access contract for customers and their
// loyalty ledger. Tx-suffixed methods run inside the caller's transaction so
// balance update and ledger entry commit together.
type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	List(ctx context.Context, page, limit int) ([]model.Customer, int64, error)
	Update(ctx context.Context, c *model.Customer) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Customer, error)
	UpdatePointsTx(tx *gorm.DB, id uuid.UUID, newBalance int) error
	CreateLoyaltyEntryTx(tx *gorm.DB, e *model.LoyaltyTransaction) error
	ListLoyaltyEntries(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.LoyaltyTransaction, int64, error)
	ListLoyaltyEntriesByReference(ctx context.Context, referenceID uuid.UUID) ([]model.LoyaltyTransaction, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) DB() *gorm.DB { return r.db }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *customerRepo) List(ctx context.Context, page, limit int) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Customer{}).Where("active = true")
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("name ASC").Offset((page - 1) * limit).Limit(limit).Find(&customers).Error
	return customers, total, err
}

func (r *customerRepo) Update(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *customerRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Customer{}).Where("id = ?", id).Update("active", false).Error
}

func (r *customerRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *customerRepo) UpdatePointsTx(tx *gorm.DB, id uuid.UUID, newBalance int) error {
	return tx.Model(&model.Customer{}).Where("id = ?", id).
		Update("loyalty_points", newBalance).Error
}

func (r *customerRepo) CreateLoyaltyEntryTx(tx *gorm.DB, e *model.LoyaltyTransaction) error {
	return tx.Create(e).Error
}

func (r *customerRepo) ListLoyaltyEntries(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.LoyaltyTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.LoyaltyTransaction{}).
		Where("customer_id = ?", customerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var entries []model.LoyaltyTransaction
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&entries).Error
	return entries, total, err
}

func (r *customerRepo) ListLoyaltyEntriesByReference(ctx context.Context, referenceID uuid.UUID) ([]model.LoyaltyTransaction, error) {
	var entries []model.LoyaltyTransaction
	err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
