package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasit-p/school-register-api/pkg/response"
)

// WithResponseMeta initialises response metadata storage on the request
// context. The response envelope merges the map and reports elapsed time
// as processing_time_ms.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(response.StartTimeContextKey, time.Now())
		c.Set(response.MetaContextKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit records whether the current response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	meta := ensureMeta(c)
	meta["cache_hit"] = hit
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(response.MetaContextKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(response.MetaContextKey, newMeta)
	return newMeta
}
