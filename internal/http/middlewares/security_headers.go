package middlewares

import "github.com/gin-gonic/gin"

// The API only ever returns JSON, so nothing may be framed, scripted or embedded.
const apiCSP = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Content-Security-Policy", apiCSP)
		c.Next()
	}
}
