package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Cross-Origin-Opener-Policy values.
const (
	OpenerPolicyDefault = "same-origin-allow-popups"
	OpenerPolicyAuth    = "unsafe-none"
)

// SecurityHeaders sets the opener policy every response carries. Paths under
// authPrefix are relaxed so a federated sign-in popup can report back.
func SecurityHeaders(authPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy := OpenerPolicyDefault
		if authPrefix != "" && strings.HasPrefix(c.Request.URL.Path, authPrefix) {
			policy = OpenerPolicyAuth
		}
		h := c.Writer.Header()
		h.Set("Cross-Origin-Opener-Policy", policy)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
