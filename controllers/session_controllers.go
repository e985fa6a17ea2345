package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

// SessionController melayani layar order kasir: pilih meja, kelola cart,
// checkout dan pembatalan. Semua perubahan lewat OrderService.
type SessionController struct {
	Orders *services.OrderService
}

func NewSessionController(orders *services.OrderService) *SessionController {
	return &SessionController{Orders: orders}
}

// SelectTable -> pindah ke meja lain, opsional memuat order yang sudah ada
func (sc *SessionController) SelectTable(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	var req struct {
		TableID uint `json:"table_id" binding:"required"`
		OrderID uint `json:"order_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	view, err := sc.Orders.SelectTable(c.Request.Context(), session, req.TableID, req.OrderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table selected", view)
}

// GetCart -> isi cart dan order aktif
func (sc *SessionController) GetCart(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current cart", session.View())
}

// AddItem -> tambah produk; order dibuat otomatis pada item pertama
func (sc *SessionController) AddItem(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	var req struct {
		ProductID uint `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	view, err := sc.Orders.AddItem(c.Request.Context(), session, req.ProductID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Item added", view)
}

// UpdateItem mengubah quantity dan/atau notes. Quantity 0 sama dengan
// menghapus item.
func (sc *SessionController) UpdateItem(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	productID, err := parseUintParam(c, "product_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Quantity *int    `json:"quantity"`
		Notes    *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Quantity == nil && req.Notes == nil {
		utils.RespondError(c, http.StatusBadRequest, errNothingToUpdate)
		return
	}

	ctx := c.Request.Context()
	var data any
	if req.Notes != nil {
		view, err := sc.Orders.UpdateNotes(ctx, session, productID, *req.Notes)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		data = view
	}
	if req.Quantity != nil {
		result, err := sc.Orders.UpdateQuantity(ctx, session, productID, *req.Quantity)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		data = result
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", data)
}

// RemoveItem -> hapus baris; order dibatalkan jika item terakhir dihapus
func (sc *SessionController) RemoveItem(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	productID, err := parseUintParam(c, "product_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Orders.RemoveItem(c.Request.Context(), session, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	message := "Item removed"
	if result.OrderCancelled {
		message = "Last item removed, order cancelled"
	}
	utils.RespondJSON(c, http.StatusOK, message, result)
}

// Checkout -> bayar order aktif lalu cetak struk pelanggan
func (sc *SessionController) Checkout(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Orders.Checkout(c.Request.Context(), session, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	message := "Payment completed"
	if result.PrintError != "" {
		message = "Payment completed, receipt not printed"
	}
	utils.RespondJSON(c, http.StatusOK, message, result)
}

// Cancel -> batalkan order aktif
func (sc *SessionController) Cancel(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	result, err := sc.Orders.Cancel(c.Request.Context(), session)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", result)
}
