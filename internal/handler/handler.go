package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-expiry-reminder/internal/app"
)

type Handler struct {
	app *app.App
}

func NewHandler(a *app.App) *Handler {
	return &Handler{app: a}
}

// Register mounts every inventory route on the group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/products", h.ListProducts)
	rg.POST("/products", h.CreateProduct)
	rg.GET("/products/expiring", h.ListExpiring)
	rg.GET("/products/:id", h.GetProduct)
	rg.PATCH("/products/:id", h.UpdateProduct)
	rg.DELETE("/products/:id", h.DeleteProduct)
	rg.POST("/products/:id/reminder", h.ScheduleReminder)

	rg.GET("/reminders", h.ListReminders)
	rg.DELETE("/reminders/:handle", h.CancelReminder)
	rg.DELETE("/reminders", h.CancelAllReminders)

	rg.POST("/sweep", h.RunSweep)

	rg.GET("/cart", h.ListCart)
	rg.POST("/cart", h.AddToCart)
	rg.DELETE("/cart/:id", h.RemoveFromCart)

	rg.POST("/scan", h.Scan)
	rg.PUT("/scan/pending", h.SetPendingScan)
	rg.POST("/scan/pending/consume", h.ConsumePendingScan)

	rg.GET("/notifications/permission", h.GetPermission)
	rg.PUT("/notifications/permission", h.SetPermission)
}
