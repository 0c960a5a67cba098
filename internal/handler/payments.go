package handler

import (
	"net/http"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// Create godoc
// @Summary      Apply a payment to a transaction
// @Description  Accepts the payment when the running total stays within one cent of the transaction amount; flips the transaction to COMPLETED once fully paid.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body body dto.CreatePaymentRequest true "Payment"
// @Success      201 {object} dto.PaymentResult
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /payments [post]
func (h *PaymentsHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CreateMultiple godoc
// @Summary      Apply several payments atomically
// @Description  Validates the whole batch against the remaining balance before inserting anything; either every payment lands or none does.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateMultiplePaymentsRequest true "Payment batch"
// @Success      201 {object} dto.MultiplePaymentsResponse
// @Failure      400 {object} apierror.APIError
// @Router       /payments/multiple [post]
func (h *PaymentsHandler) CreateMultiple(c *gin.Context) {
	var req dto.CreateMultiplePaymentsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyMultiple(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary      Change a payment amount
// @Description  Re-runs the tolerance check with the edited amount. Rejected once the transaction is COMPLETED.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id   path string                   true "Payment UUID"
// @Param        body body dto.UpdatePaymentRequest true "New amount"
// @Success      200 {object} dto.PaymentResult
// @Failure      400 {object} apierror.APIError
// @Router       /payments/{id} [patch]
func (h *PaymentsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.UpdatePaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Remove a payment
// @Description  Only payments of PENDING transactions can be removed.
// @Tags         payments
// @Param        id path string true "Payment UUID"
// @Success      204
// @Failure      400 {object} apierror.APIError
// @Router       /payments/{id} [delete]
func (h *PaymentsHandler) Delete(c *gin.Context) {
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
