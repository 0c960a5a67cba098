package handler

import (
	"net/http"
	"time"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/repository"
	"poscore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductsHandler struct {
	products service.ProductService
	stock    service.StockService
}

func NewProductsHandler(products service.ProductService, stock service.StockService) *ProductsHandler {
	return &ProductsHandler{products: products, stock: stock}
}

// Create godoc
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateProductRequest true "Product"
// @Success      201 {object} dto.ProductResponse
// @Failure      400 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get one product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        sku      query string false "Exact SKU"
// @Param        name     query string false "Name contains"
// @Param        branchId query string false "Branch UUID"
// @Param        active   query string false "false | all (default active only)"
// @Param        page     query int    false "Page (default 1)"
// @Param        limit    query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.ProductListResponse
// @Router       /products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter repository.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update a product
// @Description  Price, tax rate, name and reorder level. Stock is NOT updatable here; use the stock endpoint.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id   path string                   true "Product UUID"
// @Param        body body dto.UpdateProductRequest true "Fields to update"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /products/{id} [patch]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary      Deactivate a product
// @Tags         products
// @Param        id path string true "Product UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /products/{id} [delete]
func (h *ProductsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.products.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock godoc
// @Summary      Adjust stock
// @Description  Applies a signed change through the stock ledger. Never lets stock go negative; every change leaves a movement row.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id   path string                 true "Product UUID"
// @Param        body body dto.AdjustStockRequest true "Signed change with reason"
// @Success      200 {object} dto.StockResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /products/{id}/stock [patch]
func (h *ProductsHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.stock.Adjust(c.Request.Context(), id, req.Change, req.Reason, nil, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements godoc
// @Summary      List stock movements of a product
// @Description  The append-only audit trail: every movement carries the quantity before and after.
// @Tags         products
// @Produce      json
// @Param        id     path  string true  "Product UUID"
// @Param        reason query string false "Filter by reason"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.StockMovementListResponse
// @Router       /products/{id}/movements [get]
func (h *ProductsHandler) ListMovements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var query struct {
		Reason string `form:"reason"`
		Page   int    `form:"page,default=1"`
		Limit  int    `form:"limit,default=50"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	filter := repository.StockMovementFilter{
		ProductID: &id,
		Reason:    query.Reason,
		Page:      query.Page,
		Limit:     query.Limit,
	}
	movements, total, err := h.stock.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.StockMovementResponse, 0, len(movements))
	for i := range movements {
		m := &movements[i]
		entry := dto.StockMovementResponse{
			ID:             m.ID.String(),
			ProductID:      m.ProductID.String(),
			BranchID:       m.BranchID.String(),
			Change:         m.Change,
			Reason:         m.Reason,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Note:           m.Note,
			CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		}
		if m.ReferenceID != nil {
			ref := m.ReferenceID.String()
			entry.ReferenceID = &ref
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, dto.StockMovementListResponse{
		Data:  out,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}
