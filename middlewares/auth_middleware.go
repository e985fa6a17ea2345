package middlewares

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

// AuthMiddleware memvalidasi JWT lalu memasang kasir dan sesi POS-nya
// ke context. Token dari sesi yang sudah logout ditolak.
func AuthMiddleware(secret []byte, sessions *services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil || claims == nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}

		if claims.CashierID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid cashier ID in token"))
			c.Abort()
			return
		}

		session, ok := sessions.Get(claims.SessionID)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("session closed, please login again"))
			c.Abort()
			return
		}

		c.Set("cashier_id", claims.CashierID)
		c.Set("cashier_name", claims.CashierName)
		c.Set("role", claims.Role)
		c.Set("session", session)

		c.Next()
	}
}

// APITokenMiddleware menjaga route order API untuk terminal lain.
// Token kosong berarti route terbuka.
func APITokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid API token"))
			c.Abort()
			return
		}
		c.Next()
	}
}
