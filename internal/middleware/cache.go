package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizroom-backend/internal/cache"
)

// HeaderCache reports whether a GET was served from the response cache.
const HeaderCache = "X-Cache"

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheResponse serves GET requests from rc and memoizes 2xx responses for ttl.
// Entries are keyed per caller, so it must run after RequireAuth.
func CacheResponse(rc *cache.ResponseCache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		callerID := ""
		if claims := GetClaims(c); claims != nil {
			callerID = claims.UserID.String()
		}
		key := cache.Key(c.Request.Method, c.Request.URL.RequestURI(), callerID)

		if e, ok := rc.Get(key); ok {
			c.Header(HeaderCache, "HIT")
			c.Data(e.Status, e.ContentType, e.Body)
			c.Abort()
			return
		}

		c.Header(HeaderCache, "MISS")
		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		status := cw.Status()
		if status >= 200 && status < 300 {
			rc.Set(key, cache.Entry{
				Status:      status,
				ContentType: cw.Header().Get("Content-Type"),
				Body:        append([]byte(nil), cw.body.Bytes()...),
			}, ttl)
		}
	}
}

// InvalidateCache drops cached responses matching patterns after a successful write.
func InvalidateCache(rc *cache.ResponseCache, patterns ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rc.Invalidate(patterns...)
		}
	}
}
