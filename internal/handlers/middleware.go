package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey        = "userId"
	accessTokenQuery = "access_token"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	token, msg := bearerToken(c)
	if msg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}

	userId, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(userIDKey, userId)
	c.Next()
}

// bearerToken extracts the token from the Authorization header, falling back
// to the access_token query parameter on websocket upgrades. msg is non-empty
// when the request carries no usable token.
func bearerToken(c *gin.Context) (token, msg string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query(accessTokenQuery); q != "" && isUpgrade(c) {
			return q, ""
		}
		return "", "missing Authorization header"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "invalid Authorization header format"
	}
	return parts[1], ""
}

func isUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// currentUser returns the authenticated user id as a string, or "".
func currentUser(c *gin.Context) string {
	if id, ok := c.Get(userIDKey); ok {
		if n, ok := id.(int); ok {
			return strconv.Itoa(n)
		}
	}
	return ""
}
