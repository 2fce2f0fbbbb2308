package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagechat/models"
)

// APIKeyContextKey is the gin context key holding the authenticated key.
const APIKeyContextKey = "api_key"

const (
	msgKeyMissing = "chave de API ausente: envie X-API-Key ou Authorization: Bearer <chave>"
	msgKeyInvalid = "chave de API inválida"
)

// Auth returns API-key authentication middleware. Keys are read from
// X-API-Key or Authorization: Bearer. An empty key list allows every request.
func Auth(apiKeys []string) gin.HandlerFunc {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	if len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		switch {
		case key == "":
			unauthorized(c, msgKeyMissing)
		case !knownKey(keys, key):
			unauthorized(c, msgKeyInvalid)
		default:
			c.Set(APIKeyContextKey, key)
			c.Next()
		}
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: msg,
		Code:  models.ErrCodeUnauthorized,
	})
}

// knownKey compares against every key in constant time.
func knownKey(keys [][]byte, key string) bool {
	k := []byte(key)
	found := 0
	for _, want := range keys {
		found |= subtle.ConstantTimeCompare(want, k)
	}
	return found == 1
}

func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
