package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

// OrderAPIController membuka OrderAPI lewat HTTP supaya terminal lain
// bisa memakai instance ini sebagai backend order. Route dan amplopnya
// sama dengan yang dipakai OrderAPIClient.
type OrderAPIController struct {
	API services.OrderAPI
}

func NewOrderAPIController(api services.OrderAPI) *OrderAPIController {
	return &OrderAPIController{API: api}
}

// CreateOrder -> buka order untuk meja; order yang masih terbuka dipakai lagi
func (oa *OrderAPIController) CreateOrder(c *gin.Context) {
	var body struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := oa.API.CreateOrder(c.Request.Context(), body.TableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

func (oa *OrderAPIController) GetOrder(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := oa.API.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

func (oa *OrderAPIController) AddOrderItem(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req models.OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := oa.API.AddOrderItem(c.Request.Context(), orderID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Item added", order)
}

func (oa *OrderAPIController) UpdateOrderItem(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	itemID, err := parseUintParam(c, "item_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req models.OrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := oa.API.UpdateOrderItem(c.Request.Context(), orderID, itemID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", order)
}

// DeleteOrderItem -> hapus item; jika itu item terakhir order ikut dibatalkan
func (oa *OrderAPIController) DeleteOrderItem(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	itemID, err := parseUintParam(c, "item_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := oa.API.DeleteOrderItem(c.Request.Context(), orderID, itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item deleted", result)
}

func (oa *OrderAPIController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := oa.API.UpdateOrderStatus(c.Request.Context(), orderID, body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", result)
}

// CreatePayment -> catat pembayaran; diskon hanya dikirim jika > 0
func (oa *OrderAPIController) CreatePayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	payment, err := oa.API.CreatePayment(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Payment recorded for order %d: %s", payment.OrderID, payment.Amount)
	utils.RespondJSON(c, http.StatusCreated, "Payment created", payment)
}
