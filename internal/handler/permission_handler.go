package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/domain"
)

type PermissionRequest struct {
	Status domain.PermissionStatus `json:"status" binding:"required"`
}

func (h *Handler) GetPermission(c *gin.Context) {
	status, err := h.app.Permission(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) SetPermission(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "status is required")
		return
	}

	if err := h.app.SetPermission(c.Request.Context(), req.Status); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}
