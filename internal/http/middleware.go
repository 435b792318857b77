package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"routecrm-go/internal/models"
)

// authMiddleware resolves the bearer token to a user and stashes the user ID
// in the gin context. Tokens have the shape tok_{UUID}_{random}; the UUID is
// the user's public ID.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "authorization_header_missing"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(401, gin.H{"error": "authorization_header_invalid"})
			return
		}

		token := parts[1]
		if !strings.HasPrefix(token, "tok_") {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token_format"})
			return
		}

		tokenParts := strings.Split(token, "_")
		if len(tokenParts) < 3 {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token_structure"})
			return
		}
		uuid := tokenParts[1]

		var user models.User
		if err := s.db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token_user_not_found"})
			return
		}

		c.Set("user", &user)
		c.Set("userID", user.ID)
		c.Next()
	}
}
