package middleware

import "github.com/gin-gonic/gin"

// DefaultContentSecurityPolicy suits a JSON-only API: nothing may be loaded or framed.
const DefaultContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders applies hardening headers. HSTS is only sent when hsts is set,
// since the relay usually listens on plain HTTP on localhost.
func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", DefaultContentSecurityPolicy)
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		if hsts {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
