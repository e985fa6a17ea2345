package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/models"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultTokenTTL = 12 * time.Hour

var errInvalidCredentials = errors.New("invalid credentials")

type AuthController struct {
	DB       *gorm.DB
	Sessions *services.SessionStore
	Secret   []byte
	TokenTTL time.Duration
}

func NewAuthController(db *gorm.DB, sessions *services.SessionStore, secret []byte) *AuthController {
	return &AuthController{DB: db, Sessions: sessions, Secret: secret, TokenTTL: defaultTokenTTL}
}

// Login -> kasir masuk dengan username + PIN, membuka sesi POS baru
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		PIN      string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var cashier models.Cashier
	if err := ac.DB.Where("username = ?", strings.TrimSpace(input.Username)).First(&cashier).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cashier.PINHash), []byte(input.PIN)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	session := ac.Sessions.Open(cashier.ID, cashier.Name)
	token, err := utils.GenerateToken(ac.Secret, utils.CustomClaims{
		CashierID:   cashier.ID,
		CashierName: cashier.Name,
		Role:        cashier.Role,
		SessionID:   session.ID,
	}, ac.TokenTTL)
	if err != nil {
		ac.Sessions.Close(session.ID)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for cashier: %s, role: %s", cashier.Username, cashier.Role)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":      token,
		"role":       strings.ToLower(cashier.Role),
		"session_id": session.ID,
	})
}

// Logout menutup sesi; token lama tidak lagi diterima
func (ac *AuthController) Logout(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	ac.Sessions.Close(session.ID)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// Me -> profil kasir dan isi sesi saat ini
func (ac *AuthController) Me(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		return
	}
	role, _ := c.Get("role")
	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"cashier_id":   session.CashierID,
		"cashier_name": session.CashierName,
		"role":         role,
		"session":      session.View(),
	})
}

// sessionFrom mengambil sesi yang dipasang AuthMiddleware. Jika tidak
// ada, langsung balas 401 dan kembalikan false.
func sessionFrom(c *gin.Context) (*services.Session, bool) {
	v, exists := c.Get("session")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("session not found in context"))
		return nil, false
	}
	session, ok := v.(*services.Session)
	if !ok {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("invalid session type"))
		return nil, false
	}
	return session, true
}
