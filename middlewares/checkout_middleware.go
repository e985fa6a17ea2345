package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/utils"
)

// CheckoutSecurityHeaders mencegah respons pembayaran di-cache
func CheckoutSecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}

// LogCheckoutRequest mencatat setiap checkout beserta kasir dan hasilnya
func LogCheckoutRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		cashierID, _ := c.Get("cashier_id")
		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"cashier_id": cashierID,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		})
		if c.Writer.Status() >= 300 {
			entry.Warn("checkout failed")
			return
		}
		entry.Info("checkout completed")
	}
}
