package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func (h *Handler) ListCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.app.Cart()})
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "productId is required")
		return
	}

	item, err := h.app.AddToCart(c.Request.Context(), req.ProductID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	if err := h.app.RemoveFromCart(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
