package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/service/scan"
)

func (h *Handler) Scan(c *gin.Context) {
	var capture scan.Capture
	if err := c.ShouldBindJSON(&capture); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "imageRef is required")
		return
	}

	view, err := h.app.Scan(c.Request.Context(), capture)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) SetPendingScan(c *gin.Context) {
	var capture scan.Capture
	if err := c.ShouldBindJSON(&capture); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "imageRef is required")
		return
	}

	if err := h.app.SetPendingScan(c.Request.Context(), capture); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ConsumePendingScan(c *gin.Context) {
	view, err := h.app.ConsumePendingScan(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if view == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, view)
}
