package middleware

import (
	"net/http"
	"strings"

	"taskflow-api/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Keys set on the gin context by JWTAuthMiddleware.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextClaims = "claims"
)

// JWTAuthMiddleware validates the bearer token and rejects revoked ones.
func JWTAuthMiddleware(tokens *auth.TokenManager, revocations auth.RevocationStore, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get Authorization header
		authHeader := c.GetHeader("Authorization")
		tokenString := ""
		if authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = strings.TrimSpace(parts[1])
			}
		}
		// Fallback for WebSocket/browser where custom headers cannot be set: allow token in query param
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthenticated.",
			})
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthenticated.",
			})
			return
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				log.WithError(err).Error("revocation check failed")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"message": "Authentication is temporarily unavailable.",
				})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message": "Unauthenticated.",
				})
				return
			}
		}

		// Store user info in context for use in handlers
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// Claims returns the claims stored by JWTAuthMiddleware, or nil.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
