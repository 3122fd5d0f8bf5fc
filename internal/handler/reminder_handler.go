package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListReminders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reminders": h.app.Reminders()})
}

func (h *Handler) CancelReminder(c *gin.Context) {
	if err := h.app.CancelReminder(c.Request.Context(), c.Param("handle")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CancelAllReminders(c *gin.Context) {
	n, err := h.app.CancelAllReminders(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": n})
}

func (h *Handler) RunSweep(c *gin.Context) {
	result, err := h.app.RunSweep(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
