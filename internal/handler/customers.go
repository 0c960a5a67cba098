package handler

import (
	"net/http"
	"time"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CustomersHandler struct {
	customers service.CustomerService
	loyalty   service.LoyaltyService
}

func NewCustomersHandler(customers service.CustomerService, loyalty service.LoyaltyService) *CustomersHandler {
	return &CustomersHandler{customers: customers, loyalty: loyalty}
}

// Create godoc
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateCustomerRequest true "Customer"
// @Success      201 {object} dto.CustomerResponse
// @Failure      400 {object} apierror.APIError
// @Router       /customers [post]
func (h *CustomersHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.customers.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get one customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer UUID"
// @Success      200 {object} dto.CustomerResponse
// @Failure      404 {object} apierror.APIError
// @Router       /customers/{id} [get]
func (h *CustomersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        page  query int false "Page (default 1)"
// @Param        limit query int false "Rows per page (default 50)"
// @Success      200 {object} map[string]interface{}
// @Router       /customers [get]
func (h *CustomersHandler) List(c *gin.Context) {
	var query struct {
		Page  int `form:"page,default=1"`
		Limit int `form:"limit,default=50"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	customers, total, err := h.customers.List(c.Request.Context(), query.Page, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  customers,
		"total": total,
		"page":  query.Page,
		"limit": query.Limit,
	})
}

// Update godoc
// @Summary      Update a customer
// @Description  Name, contact details and loyalty tier. The points balance is not updatable here; use the loyalty-points endpoint.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id   path string                    true "Customer UUID"
// @Param        body body dto.UpdateCustomerRequest true "Fields to update"
// @Success      200 {object} dto.CustomerResponse
// @Failure      404 {object} apierror.APIError
// @Router       /customers/{id} [patch]
func (h *CustomersHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.UpdateCustomerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.customers.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary      Deactivate a customer
// @Tags         customers
// @Param        id path string true "Customer UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /customers/{id} [delete]
func (h *CustomersHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.customers.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustLoyalty godoc
// @Summary      Adjust a customer's loyalty points
// @Description  Applies a signed change through the loyalty ledger. The balance never goes negative; every change leaves a ledger entry.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id   path string                   true "Customer UUID"
// @Param        body body dto.AdjustLoyaltyRequest true "Signed points change with reason"
// @Success      200 {object} dto.LoyaltyBalanceResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /customers/{id}/loyalty-points [post]
func (h *CustomersHandler) AdjustLoyalty(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.AdjustLoyaltyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.loyalty.Adjust(c.Request.Context(), id, req.Points, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoyaltyHistory godoc
// @Summary      List a customer's loyalty ledger
// @Description  Newest first. Points carry the absolute magnitude; the type carries the sign.
// @Tags         customers
// @Produce      json
// @Param        id    path  string true  "Customer UUID"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.LoyaltyHistoryResponse
// @Router       /customers/{id}/loyalty-history [get]
func (h *CustomersHandler) LoyaltyHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var query struct {
		Page  int `form:"page,default=1"`
		Limit int `form:"limit,default=50"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	entries, total, err := h.loyalty.History(c.Request.Context(), id, query.Page, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.LoyaltyEntryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		entry := dto.LoyaltyEntryResponse{
			ID:           e.ID.String(),
			CustomerID:   e.CustomerID.String(),
			Points:       e.Points,
			Type:         e.Type,
			Reason:       e.Reason,
			BalanceAfter: e.BalanceAfter,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		}
		if e.ReferenceID != nil {
			ref := e.ReferenceID.String()
			entry.ReferenceID = &ref
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, dto.LoyaltyHistoryResponse{
		Data:  out,
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
	})
}
