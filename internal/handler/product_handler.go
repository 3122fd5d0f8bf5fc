package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

type CreateProductRequest struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Price      string     `json:"price"`
	ExpiryDate civil.Date `json:"expiryDate"`
}

type UpdateProductRequest struct {
	Name       *string     `json:"name"`
	Price      *string     `json:"price"`
	ExpiryDate *civil.Date `json:"expiryDate"`
}

func (h *Handler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.app.ListProducts()})
}

func (h *Handler) ListExpiring(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.app.Expiring()})
}

func (h *Handler) GetProduct(c *gin.Context) {
	view, err := h.app.GetProduct(c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid create product request",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, "validation_error", "expected name, price and expiryDate (YYYY-MM-DD)")
		return
	}

	view, err := h.app.AddProduct(ctx, domain.Product{
		ID:         req.ID,
		Name:       req.Name,
		Price:      req.Price,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "expected name, price or expiryDate (YYYY-MM-DD)")
		return
	}

	view, err := h.app.UpdateProduct(ctx, c.Param("id"), domain.ProductUpdate{
		Name:       req.Name,
		Price:      req.Price,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.app.RemoveProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ScheduleReminder(c *gin.Context) {
	leadDays := -1
	if v := c.Query("lead_days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "validation_error", "lead_days must be a non-negative integer")
			return
		}
		leadDays = parsed
	}

	record, err := h.app.ScheduleReminder(c.Request.Context(), c.Param("id"), leadDays)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}
