package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/utils"
)

// WebSocketAuthMiddleware membaca JWT dari ?token=, browser tidak bisa
// mengirim header saat handshake websocket
func WebSocketAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(secret, token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", claims.Role)
		c.Set("cashier_id", claims.CashierID)
		c.Set("cashier_name", claims.CashierName)

		c.Next()
	}
}
