package middleware

import (
	"net/http"
	"strings"

	"tiffin-service/services"

	"github.com/gin-gonic/gin"
)

const AdminKey = "adminUser"

// RequireAdmin validates the bearer token and checks the admin role.
func RequireAdmin(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing token"})
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		role, _ := claims["role"].(string)
		if role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Set(AdminKey, sub)
		}
		c.Next()
	}
}
