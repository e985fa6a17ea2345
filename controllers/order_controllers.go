package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// UpdateOrderStatus -> ubah status order (paid / cancelled). Meminta
// status yang sama dua kali tetap sukses tanpa notifikasi baru.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	// session boleh kosong, misalnya dari layar manajer
	var session *services.Session
	if v, exists := c.Get("session"); exists {
		session, _ = v.(*services.Session)
	}

	result, err := oc.Orders.UpdateStatus(c.Request.Context(), session, orderID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	message := "Order status updated"
	if result.AlreadyInStatus {
		message = "Order already in requested status"
	}
	utils.RespondJSON(c, http.StatusOK, message, result)
}
