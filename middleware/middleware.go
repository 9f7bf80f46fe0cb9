package middleware

import (
	"net/http"

	"github.com/ariebrainware/tbcare/authorize"
	"github.com/gin-gonic/gin"
)

const (
	ctxActor     = "actor"
	ctxRequestID = "request_id"
)

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Expose-Headers", HeaderRequestID)
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Content-Type", "application/json")

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetActor stores the authenticated caller on the request context.
func SetActor(c *gin.Context, actor authorize.Actor) {
	c.Set(ctxActor, actor)
}

// GetActor returns the authenticated caller set by Authenticate.
func GetActor(c *gin.Context) (authorize.Actor, bool) {
	v, ok := c.Get(ctxActor)
	if !ok {
		return authorize.Actor{}, false
	}
	actor, ok := v.(authorize.Actor)
	return actor, ok
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}
