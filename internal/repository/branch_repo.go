package repository

import (
	"context"

	"poscore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BranchRepository interface {
	Create(ctx context.Context, b *model.Branch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	FindByCode(ctx context.Context, code string) (*model.Branch, error)
	List(ctx context.Context) ([]model.Branch, error)
	Update(ctx context.Context, b *model.Branch) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type branchRepo struct{ db *gorm.DB }

func NewBranchRepository(db *gorm.DB) BranchRepository { return &branchRepo{db: db} }

func (r *branchRepo) Create(ctx context.Context, b *model.Branch) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *branchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var b model.Branch
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	return &b, err
}

func (r *branchRepo) FindByCode(ctx context.Context, code string) (*model.Branch, error) {
	var b model.Branch
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&b).Error
	return &b, err
}

func (r *branchRepo) List(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	err := r.db.WithContext(ctx).Where("active = true").Order("code ASC").Find(&branches).Error
	return branches, err
}

func (r *branchRepo) Update(ctx context.Context, b *model.Branch) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *branchRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Branch{}).Where("id = ?", id).Update("active", false).Error
}
