package middleware

import (
	"net/http"

	"github.com/MrEthical07/authcore"
	"github.com/gin-gonic/gin"
)

// GinClaimsKey is the gin context key under which [GinGuard] stores claims.
const GinClaimsKey = "authcore.claims"

// GinClaims returns the claims stored by [GinGuard].
func GinClaims(c *gin.Context) (*authcore.Claims, bool) {
	v, ok := c.Get(GinClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*authcore.Claims)
	return claims, ok && claims != nil
}

// GinGuard is [Guard] for gin. Claims are also attached to the request
// context so ClaimsFromContext works in downstream handlers.
func GinGuard(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, err := auth.ValidateAccess(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(GinClaimsKey, claims)
		c.Request = c.Request.WithContext(withClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// GinRequire is [Require] for gin.
func GinRequire(auth Authenticator, capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GinClaims(c)
		if !ok || auth == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !auth.AuthorizeClaims(claims, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
