package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromotionRepository interface {
	Create(ctx context.Context, p *model.Promotion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	List(ctx context.Context, activeOnly bool) ([]model.Promotion, error)
	Update(ctx context.Context, p *model.Promotion) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type promotionRepo struct{ db *gorm.DB }

func NewPromotionRepository(db *gorm.DB) PromotionRepository { return &promotionRepo{db: db} }

func (r *promotionRepo) Create(ctx context.Context, p *model.Promotion) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *promotionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	var p model.Promotion
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *promotionRepo) List(ctx context.Context, activeOnly bool) ([]model.Promotion, error) {
	var promos []model.Promotion
	q := r.db.WithContext(ctx).Model(&model.Promotion{})
	if activeOnly {
		q = q.Where("active = true")
	}
	err := q.Order("name ASC").Find(&promos).Error
	return promos, err
}

func (r *promotionRepo) Update(ctx context.Context, p *model.Promotion) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *promotionRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Promotion{}).Where("id = ?", id).Update("active", false).Error
}
