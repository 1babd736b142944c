package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

const (
	UsernameKey = "username"
	RankKey     = "rank"
)

// AuthMiddleware validates the Bearer token and stores the caller's identity
// in the request context.
func AuthMiddleware(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := accounts.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(UsernameKey, claims.Username)
		c.Set(RankKey, claims.Rank)
		c.Next()
	}
}

// RequireRank rejects callers below the given rank. Must run after
// AuthMiddleware.
func RequireRank(min models.AdminRank) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(RankKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient privileges"})
			return
		}
		rank, ok := v.(models.AdminRank)
		if !ok || !rank.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient privileges"})
			return
		}
		c.Next()
	}
}

// CallerRank returns the authenticated caller's rank, defaulting to the
// lowest privilege when absent.
func CallerRank(c *gin.Context) models.AdminRank {
	if v, ok := c.Get(RankKey); ok {
		if rank, ok := v.(models.AdminRank); ok {
			return rank
		}
	}
	return models.RankModerator
}
