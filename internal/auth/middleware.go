package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "auth_claims"

// PublicWritePrefixes lists paths that accept writes without a token; they
// serve anonymous ticket buyers.
var PublicWritePrefixes = []string{"/api/tickets", "/api/checkout/session"}

// Decision is the outcome of Classify.
type Decision int

const (
	// Allow lets the request through without looking at credentials.
	Allow Decision = iota
	// RequireToken means the request needs a valid bearer token.
	RequireToken
)

// Classify decides whether a request with method and path needs a token.
func Classify(method, path string) Decision {
	if !isWrite(method) {
		return Allow
	}
	for _, prefix := range PublicWritePrefixes {
		if strings.HasPrefix(path, prefix) {
			return Allow
		}
	}
	return RequireToken
}

// Gate lets reads and public writes through and requires a valid bearer
// token for every other write. Verified claims are stored on the context.
func (s *Service) Gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Classify(c.Request.Method, c.Request.URL.Path) == Allow {
			c.Next()
			return
		}
		claims, err := s.ValidateToken(ExtractBearerToken(c.GetHeader("Authorization")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// ClaimsFromContext retrieves the claims stored by Gate.
func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	val, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}

// ExtractBearerToken returns the token from an Authorization header value,
// or "" when the header does not carry a bearer credential.
func ExtractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func isWrite(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
