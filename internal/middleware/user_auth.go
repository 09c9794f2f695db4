package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserAuth validates user JWT tokens and injects the userId into the
// context. Requests without a valid token are rejected.
func UserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := userIDFromHeader(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if userID == nil {
			log.Println("[AUTH] [ERROR] missing token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		c.Set("userId", *userID)
		c.Next()
	}
}

// OptionalUser attaches the userId when a valid bearer token is present
// and lets the request through either way. Guests keep shopping; the
// cart treats identity as optional.
func OptionalUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := userIDFromHeader(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Println("[AUTH] [WARN] ignoring invalid token:", err)
		} else if userID != nil {
			c.Set("userId", *userID)
		}
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user's id, or nil for a
// guest request.
func UserIDFromContext(c *gin.Context) *primitive.ObjectID {
	value, exists := c.Get("userId")
	if !exists {
		return nil
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok {
		return nil
	}
	return &userID
}

func userIDFromHeader(header, secret string) (*primitive.ObjectID, error) {
	claims, err := claimsFromHeader(header, secret)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, nil
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &userID, nil
}
