package middleware

import (
	"errors"
	"fmt"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/authorize"
	"github.com/ariebrainware/tbcare/util"
	"github.com/gin-gonic/gin"
)

// RequirePermission aborts with 403 unless the authenticated role may
// perform action on resource.
func RequirePermission(authz *authorize.Authorizer, resource authorize.Resource, action authorize.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Unauthorized", Err: errors.New("no authenticated user")})
			c.Abort()
			return
		}

		if err := authz.MustEnforce(actor, resource, action); err != nil {
			if !errors.Is(err, apperr.ErrForbidden) {
				util.CallServerError(c, util.APIErrorParams{Msg: "Permission check failed", Err: err})
				c.Abort()
				return
			}
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventForbiddenAccess,
				UserID:    actor.UserID,
				Role:      string(actor.Role),
				IP:        c.ClientIP(),
				RequestID: GetRequestID(c),
				Resource:  fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path),
				Message:   apperr.Message(err),
			})
			util.CallForbidden(c, util.APIErrorParams{Msg: "Access denied", Err: err})
			c.Abort()
			return
		}

		c.Next()
	}
}
