package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

// ReceiptController merender dan mencetak dokumen order: phiếu bếp,
// struk sementara, struk pelanggan dan cetak ulang.
type ReceiptController struct {
	Orders   *services.OrderService
	Printing *services.PrintDispatcher
}

func NewReceiptController(orders *services.OrderService, printing *services.PrintDispatcher) *ReceiptController {
	return &ReceiptController{Orders: orders, Printing: printing}
}

type printRequest struct {
	Copies             int                  `json:"copies"`
	PaymentMethod      models.PaymentMethod `json:"payment_method"`
	DiscountPercentage float64              `json:"discount_percentage"`
}

// metadata mengisi nama kasir dari sesi jika ada.
func (rc *ReceiptController) metadata(c *gin.Context, req printRequest) services.RenderMetadata {
	meta := services.RenderMetadata{
		Copies:             req.Copies,
		DiscountPercentage: req.DiscountPercentage,
	}
	if req.PaymentMethod != "" {
		meta.PaymentMethodLabel = req.PaymentMethod.Label()
	}
	if name, exists := c.Get("cashier_name"); exists {
		meta.CashierName, _ = name.(string)
	}
	return meta
}

// GetDocument -> preview dokumen tanpa mencetak. ?format=text
// mengembalikan teks struk apa adanya.
func (rc *ReceiptController) GetDocument(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	kind := models.DocumentKind(c.Param("kind"))

	req := printRequest{PaymentMethod: models.PaymentMethod(c.Query("payment_method"))}
	doc, _, err := rc.Orders.Document(c.Request.Context(), orderID, kind, rc.metadata(c, req))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, services.FormatDocumentText(doc))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Document rendered", doc)
}

// PrintDocument -> render lalu kirim ke printer. Body: {"kind": "...", "copies": n}
func (rc *ReceiptController) PrintDocument(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req struct {
		printRequest
		Kind models.DocumentKind `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	rc.print(c, orderID, req.Kind, req.printRequest)
}

// Reprint mencetak ulang struk order yang sudah dibayar, dengan tanda
// cetak ulang dan harga yang tersimpan.
func (rc *ReceiptController) Reprint(c *gin.Context) {
	orderID, err := parseUintParam(c, "order_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var req printRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}
	rc.print(c, orderID, models.DocumentReprint, req)
}

func (rc *ReceiptController) print(c *gin.Context, orderID uint, kind models.DocumentKind, req printRequest) {
	job, err := rc.Orders.Print(c.Request.Context(), orderID, kind, rc.metadata(c, req))
	if job != nil && err != nil {
		// dokumen tersimpan, printer gagal; job akan dicoba ulang
		utils.RespondJSON(c, http.StatusAccepted, "Print failed, queued for retry", job)
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Document printed", job)
}

// ListPrintJobs -> daftar print job, filter ?status=failed
func (rc *ReceiptController) ListPrintJobs(c *gin.Context) {
	jobs, err := rc.Printing.ListJobs(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of print jobs", gin.H{
		"jobs":    jobs,
		"metrics": rc.Printing.GetMetrics(),
		"queued":  rc.Printing.QueuedJobs(),
	})
}

// RetryPrintJob -> coba cetak ulang job yang gagal
func (rc *ReceiptController) RetryPrintJob(c *gin.Context) {
	job, err := rc.Printing.Retry(c.Request.Context(), c.Param("job_id"))
	if job != nil && err != nil {
		utils.RespondJSON(c, http.StatusAccepted, "Print failed again", job)
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Print job retried", job)
}
