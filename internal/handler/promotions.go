package handler

import (
	"net/http"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PromotionsHandler struct{ svc service.PromotionService }

func NewPromotionsHandler(svc service.PromotionService) *PromotionsHandler {
	return &PromotionsHandler{svc: svc}
}

// Calculate godoc
// @Summary      Evaluate a promotion
// @Description  Returns the discount breakdown for a price/quantity pair without touching any transaction.
// @Tags         promotions
// @Accept       json
// @Produce      json
// @Param        body body dto.CalculateDiscountRequest true "Price and quantity"
// @Success      200 {object} dto.CalculateDiscountResponse
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /promotions/calculate [post]
func (h *PromotionsHandler) Calculate(c *gin.Context) {
	var req dto.CalculateDiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Calculate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Create a promotion
// @Tags         promotions
// @Accept       json
// @Produce      json
// @Param        body body dto.CreatePromotionRequest true "Promotion"
// @Success      201 {object} dto.PromotionResponse
// @Failure      400 {object} apierror.APIError
// @Router       /promotions [post]
func (h *PromotionsHandler) Create(c *gin.Context) {
	var req dto.CreatePromotionRequest
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
// @Summary      Get one promotion
// @Tags         promotions
// @Produce      json
// @Param        id path string true "Promotion UUID"
// @Success      200 {object} dto.PromotionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /promotions/{id} [get]
func (h *PromotionsHandler) Get(c *gin.Context) {
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
// @Summary      List promotions
// @Tags         promotions
// @Produce      json
// @Param        active query string false "true to list active only"
// @Success      200 {array} dto.PromotionResponse
// @Router       /promotions [get]
func (h *PromotionsHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	resp, err := h.svc.List(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update a promotion
// @Tags         promotions
// @Accept       json
// @Produce      json
// @Param        id   path string                     true "Promotion UUID"
// @Param        body body dto.UpdatePromotionRequest true "Fields to update"
// @Success      200 {object} dto.PromotionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /promotions/{id} [patch]
func (h *PromotionsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.UpdatePromotionRequest
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

// Deactivate godoc
// @Summary      Deactivate a promotion
// @Description  Deactivated promotions stop applying to new sales; settled transactions keep their recorded discounts.
// @Tags         promotions
// @Param        id path string true "Promotion UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /promotions/{id} [delete]
func (h *PromotionsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
