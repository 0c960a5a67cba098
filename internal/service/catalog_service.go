package service

import (
	"context"
	"errors"
	"strings"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/model"
	"poscore/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductService is the product catalog CRUD. Stock changes are NOT part of
// this service: they go through StockService so every change leaves a
// movement row.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter repository.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	products repository.ProductRepository
	branches repository.BranchRepository
}

func NewProductService(products repository.ProductRepository, branches repository.BranchRepository) ProductService {
	return &productService{products: products, branches: branches}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, apierror.Validation("Invalid branch id")
	}
	if _, err := s.branches.FindByID(ctx, branchID); err != nil {
		return nil, apierror.NotFound("Branch not found")
	}

	sku := strings.TrimSpace(req.SKU)
	if _, err := s.products.FindBySKU(ctx, sku); err == nil {
		return nil, apierror.Conflict("A product with this SKU already exists")
	}

	p := &model.Product{
		SKU:          sku,
		Name:         req.Name,
		BranchID:     branchID,
		UnitPrice:    round2(req.UnitPrice),
		TaxRatePct:   req.TaxRatePct,
		ReorderLevel: req.ReorderLevel,
		Active:       true,
	}
	if err := s.products.Create(ctx, p); err != nil {
		if isDuplicateKey(err) {
			return nil, apierror.Conflict("A product with this SKU already exists")
		}
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Product not found")
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Product not found")
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.UnitPrice != nil {
		p.UnitPrice = round2(*req.UnitPrice)
	}
	if req.TaxRatePct != nil {
		p.TaxRatePct = *req.TaxRatePct
	}
	if req.ReorderLevel != nil {
		p.ReorderLevel = *req.ReorderLevel
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return apierror.NotFound("Product not found")
	}
	return s.products.Deactivate(ctx, id)
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		BranchID:      p.BranchID.String(),
		UnitPrice:     p.UnitPrice,
		TaxRatePct:    p.TaxRatePct,
		StockQuantity: p.StockQuantity,
		ReorderLevel:  p.ReorderLevel,
		Active:        p.Active,
	}
}

// CustomerService is the customer CRUD. Loyalty balance changes go through
// LoyaltyService.
type CustomerService interface {
	Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error)
	List(ctx context.Context, page, limit int) ([]dto.CustomerResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type customerService struct {
	customers repository.CustomerRepository
}

func NewCustomerService(customers repository.CustomerRepository) CustomerService {
	return &customerService{customers: customers}
}

func (s *customerService) Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	c := &model.Customer{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		LoyaltyTier: model.TierStandard,
		Active:      true,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		if isDuplicateKey(err) {
			return nil, apierror.Conflict("A customer with this email already exists")
		}
		return nil, err
	}
	resp := customerToResponse(c)
	return &resp, nil
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*dto.CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Customer not found")
	}
	resp := customerToResponse(c)
	return &resp, nil
}

func (s *customerService) List(ctx context.Context, page, limit int) ([]dto.CustomerResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	customers, total, err := s.customers.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, customerToResponse(&customers[i]))
	}
	return out, total, nil
}

func (s *customerService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Customer not found")
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.LoyaltyTier != nil {
		c.LoyaltyTier = *req.LoyaltyTier
	}
	if err := s.customers.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := customerToResponse(c)
	return &resp, nil
}

func (s *customerService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.customers.FindByID(ctx, id); err != nil {
		return apierror.NotFound("Customer not found")
	}
	return s.customers.Deactivate(ctx, id)
}

func customerToResponse(c *model.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:            c.ID.String(),
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		LoyaltyPoints: c.LoyaltyPoints,
		LoyaltyTier:   c.LoyaltyTier,
		Active:        c.Active,
	}
}

// BranchService is the branch CRUD.
type BranchService interface {
	Create(ctx context.Context, req dto.CreateBranchRequest) (*dto.BranchResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.BranchResponse, error)
	List(ctx context.Context) ([]dto.BranchResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateBranchRequest) (*dto.BranchResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type branchService struct {
	branches repository.BranchRepository
	products repository.ProductRepository
}

func NewBranchService(branches repository.BranchRepository, products repository.ProductRepository) BranchService {
	return &branchService{branches: branches, products: products}
}

func (s *branchService) Create(ctx context.Context, req dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	b := &model.Branch{
		Code:    strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:    req.Name,
		Address: req.Address,
		Active:  true,
	}
	if err := s.branches.Create(ctx, b); err != nil {
		if isDuplicateKey(err) {
			return nil, apierror.Conflict("A branch with this code already exists")
		}
		return nil, err
	}
	resp := branchToResponse(b)
	return &resp, nil
}

func (s *branchService) Get(ctx context.Context, id uuid.UUID) (*dto.BranchResponse, error) {
	b, err := s.branches.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Branch not found")
	}
	resp := branchToResponse(b)
	return &resp, nil
}

func (s *branchService) List(ctx context.Context) ([]dto.BranchResponse, error) {
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		out = append(out, branchToResponse(&branches[i]))
	}
	return out, nil
}

func (s *branchService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBranchRequest) (*dto.BranchResponse, error) {
	b, err := s.branches.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("Branch not found")
	}
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Address != nil {
		b.Address = req.Address
	}
	if err := s.branches.Update(ctx, b); err != nil {
		return nil, err
	}
	resp := branchToResponse(b)
	return &resp, nil
}

// Deactivate refuses to deactivate a branch that still has active products.
func (s *branchService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.branches.FindByID(ctx, id); err != nil {
		return apierror.NotFound("Branch not found")
	}
	count, err := s.products.CountByBranch(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apierror.BusinessRule("Branch still has active products")
	}
	return s.branches.Deactivate(ctx, id)
}

func branchToResponse(b *model.Branch) dto.BranchResponse {
	return dto.BranchResponse{
		ID:      b.ID.String(),
		Code:    b.Code,
		Name:    b.Name,
		Address: b.Address,
		Active:  b.Active,
	}
}

// isDuplicateKey detects unique constraint violations across gorm and the
// postgres driver.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key value")
}
