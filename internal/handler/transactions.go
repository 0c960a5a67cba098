package handler

import (
	"net/http"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/repository"
	"poscore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TransactionsHandler struct{ svc service.SettlementService }

func NewTransactionsHandler(svc service.SettlementService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc}
}

// Create godoc
// @Summary      Create a sale transaction
// @Description  Settles a sale atomically: prices lines (applying promotions), decrements stock, records payments and loyalty movements.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateTransactionRequest true "Sale detail"
// @Success      201  {object} dto.TransactionResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /transactions [post]
func (h *TransactionsHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get one transaction
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction UUID"
// @Success      200 {object} dto.TransactionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /transactions/{id} [get]
func (h *TransactionsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List transactions
// @Description  Paginated list filtered by branch, status and date.
// @Tags         transactions
// @Produce      json
// @Param        branchId query string false "Branch UUID"
// @Param        status   query string false "PENDING | COMPLETED | all"
// @Param        date     query string false "YYYY-MM-DD"
// @Param        page     query int    false "Page (default 1)"
// @Param        limit    query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.TransactionListResponse
// @Router       /transactions [get]
func (h *TransactionsHandler) List(c *gin.Context) {
	var filter repository.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update transaction metadata or status
// @Description  Only metadata and status are mutable post-creation. COMPLETED back to PENDING is rejected.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id   path string                       true "Transaction UUID"
// @Param        body body dto.UpdateTransactionRequest true "Fields to update"
// @Success      200 {object} dto.TransactionResponse
// @Failure      400 {object} apierror.APIError
// @Router       /transactions/{id} [patch]
func (h *TransactionsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.UpdateTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a pending transaction
// @Description  Restores stock with inverse movements and reverses loyalty entries. Completed transactions cannot be deleted.
// @Tags         transactions
// @Param        id path string true "Transaction UUID"
// @Success      204
// @Failure      400 {object} apierror.APIError
// @Router       /transactions/{id} [delete]
func (h *TransactionsHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddLine godoc
// @Summary      Add a line to a pending transaction
// @Description  A line for a product already present merges quantities instead of duplicating.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id   path string             true "Transaction UUID"
// @Param        body body dto.AddLineRequest true "Line to add"
// @Success      200 {object} dto.TransactionResponse
// @Failure      400 {object} apierror.APIError
// @Router       /transactions/{id}/lines [post]
func (h *TransactionsHandler) AddLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.AddLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddLine(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
