package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cpdvault/internal/common"
	"github.com/gin-gonic/gin"
)

// userIDKey is the gin context key under which the authenticated user id is
// stored for downstream handlers.
const userIDKey = "userID"

// tokenVerifier is the slice of UserService the middleware needs.
type tokenVerifier interface {
	VerifyAccessToken(tokenString string) (string, error)
}

// authRequired extracts the bearer token from the Authorization header,
// verifies it, and stores the user id in the request context. Missing,
// malformed, or expired tokens all abort with 401 so the client knows to
// refresh or re-login.
func authRequired(verifier tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		userID, err := verifier.VerifyAccessToken(strings.TrimPrefix(header, common.BearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// currentUserID returns the user id stored by authRequired.
func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
