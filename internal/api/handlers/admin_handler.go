package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/api/middleware"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

type AdminHandler struct {
	accounts *services.AccountService
}

func NewAdminHandler(accounts *services.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an admin and returns a session token.
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	acct, token, err := h.accounts.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"username": acct.Username,
		"rank":     acct.Rank,
	})
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	SecretKey string `json:"secret_key" binding:"required"`
}

// Register creates an admin account gated by the shared secret key.
func (h *AdminHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, password and secret key required"})
		return
	}

	acct, err := h.accounts.CreateWithSecret(req.Username, req.Password, req.SecretKey)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSecretKey):
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid Secret Key. Access Denied."})
		case errors.Is(err, services.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "Username already exists."})
		case errors.Is(err, services.ErrCredentialsTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username/Password too short."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		}
		return
	}
	c.JSON(http.StatusCreated, acct)
}

// Me returns the authenticated caller's identity.
func (h *AdminHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"username": c.GetString(middleware.UsernameKey),
		"rank":     middleware.CallerRank(c),
	})
}

// ListAccounts returns all admin accounts.
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list accounts"})
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// DeleteAccount removes an admin account. Owner rank required; hardwired
// owners are immutable.
func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	err := h.accounts.Delete(c.Param("username"), middleware.CallerRank(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOwnerOnly):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only Owners can delete users."})
		case errors.Is(err, services.ErrOwnerImmutable):
			c.JSON(http.StatusForbidden, gin.H{"error": "You cannot delete an Owner."})
		case errors.Is(err, services.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("username")})
}
