package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"habboverify/internal/logger"
	"habboverify/internal/middleware"
)

const tokenTTL = 15 * time.Minute

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AdminAuthHandler struct {
	username     string
	passwordHash string
	secret       []byte
}

func NewAdminAuthHandler(username, passwordHash string, secret []byte) *AdminAuthHandler {
	return &AdminAuthHandler{username: username, passwordHash: strings.TrimSpace(passwordHash), secret: secret}
}

// @Summary      Admin login
// @Description  Checks the operator credentials and returns a short-lived access token
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        login  body      LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /admin/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	username := strings.TrimSpace(req.Username)
	log := logger.Log.WithField("username", username)

	if h.passwordHash == "" || subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) != 1 {
		log.Warn("[admin][login] unknown user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		log.Warnf("[admin][login] bcrypt mismatch: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, exp, err := middleware.IssueToken(h.secret, username, tokenTTL)
	if err != nil {
		log.Errorf("[admin][login] sign token failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}
	log.Info("[admin][login] success")
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   exp.UTC().Format(time.RFC3339),
	})
}
