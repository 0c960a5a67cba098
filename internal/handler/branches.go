package handler

import (
	"net/http"

	"poscore/internal/apierror"
	"poscore/internal/dto"
	"poscore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BranchesHandler struct{ svc service.BranchService }

func NewBranchesHandler(svc service.BranchService) *BranchesHandler {
	return &BranchesHandler{svc: svc}
}

// Create godoc
// @Summary      Create a branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        body body dto.CreateBranchRequest true "Branch"
// @Success      201 {object} dto.BranchResponse
// @Failure      409 {object} apierror.APIError
// @Router       /branches [post]
func (h *BranchesHandler) Create(c *gin.Context) {
	var req dto.CreateBranchRequest
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
// @Summary      Get one branch
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch UUID"
// @Success      200 {object} dto.BranchResponse
// @Failure      404 {object} apierror.APIError
// @Router       /branches/{id} [get]
func (h *BranchesHandler) Get(c *gin.Context) {
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
// @Summary      List branches
// @Tags         branches
// @Produce      json
// @Success      200 {array} dto.BranchResponse
// @Router       /branches [get]
func (h *BranchesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update a branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id   path string                  true "Branch UUID"
// @Param        body body dto.UpdateBranchRequest true "Fields to update"
// @Success      200 {object} dto.BranchResponse
// @Failure      404 {object} apierror.APIError
// @Router       /branches/{id} [patch]
func (h *BranchesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	var req dto.UpdateBranchRequest
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
// @Summary      Deactivate a branch
// @Description  Rejected while the branch still has active products.
// @Tags         branches
// @Param        id path string true "Branch UUID"
// @Success      204
// @Failure      400 {object} apierror.APIError
// @Failure      404 {object} apierror.APIError
// @Router       /branches/{id} [delete]
func (h *BranchesHandler) Deactivate(c *gin.Context) {
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
