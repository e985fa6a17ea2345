package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/utils"
)

func ReceiptLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{
			"order_id": c.Param("order_id"),
			"kind":     c.Param("kind"),
			"path":     c.FullPath(),
		}
		if jobID := c.Param("job_id"); jobID != "" {
			fields["job_id"] = jobID
		}
		utils.InfoLogger.WithFields(fields).Debug("document requested")

		c.Next()

		if c.Writer.Status() < 300 {
			utils.InfoLogger.WithFields(fields).Info("document handled")
		} else {
			utils.ErrorLogger.WithFields(fields).Warnf("document request failed with %d", c.Writer.Status())
		}
	}
}
