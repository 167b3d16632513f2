// middleware/admin_verification.go
package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"petal-chatbot-backend/config"
)

// VerifyAdminSignature guards admin endpoints with an HMAC of the request
// body, keyed by the configured admin secret. GET requests sign the raw
// request path instead of the body.
func VerifyAdminSignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := config.Get().Security.AdminSecret
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access not configured"})
			return
		}

		signature := c.GetHeader("X-Admin-Signature-256")
		if signature == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing signature"})
			return
		}

		var payload []byte
		if c.Request.Method == http.MethodGet {
			payload = []byte(c.Request.URL.RequestURI())
		} else {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
				return
			}
			// Restore the body for subsequent handlers
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
			payload = body
		}

		expectedSig := calculateHMAC(payload, secret)
		if !hmac.Equal([]byte(signature), []byte("sha256="+expectedSig)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}

		c.Next()
	}
}

func calculateHMAC(data []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
