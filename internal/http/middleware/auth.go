package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Regera24/AstraMindProject/internal/token"
)

const claimsKey = "accessClaims"

// Auth validates the Authorization header and attaches the verified claims to
// the request context.
type Auth struct {
	Codec *token.Codec
}

// RequireAuth ensures the request carries a valid access token.
func (m *Auth) RequireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "authorization header required"})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "bearer token required"})
		return
	}

	claims, err := m.Codec.Verify(parts[1], token.KindAccess)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "invalid access token"})
		return
	}

	c.Set(claimsKey, claims)
	c.Next()
}

// GetClaims exposes the verified access token claims to handlers.
func GetClaims(c *gin.Context) (*token.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*token.Claims)
	return claims, ok
}
