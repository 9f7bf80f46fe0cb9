package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariebrainware/tbcare/adherence"
	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/authorize"
	"github.com/ariebrainware/tbcare/middleware"
	"github.com/ariebrainware/tbcare/schedule"
	"github.com/ariebrainware/tbcare/treatment"
	"github.com/ariebrainware/tbcare/util"
	"github.com/ariebrainware/tbcare/visit"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler serves the treatment, visit and report routes.
type Handler struct {
	treatments *treatment.Service
	visits     *visit.Tracker
	adherence  *adherence.Service
	log        zerolog.Logger
}

func NewHandler(treatments *treatment.Service, visits *visit.Tracker, adh *adherence.Service, log zerolog.Logger) *Handler {
	return &Handler{
		treatments: treatments,
		visits:     visits,
		adherence:  adh,
		log:        log.With().Str("component", "endpoint").Logger(),
	}
}

// respondError maps service errors onto the response envelope.
func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	params := util.APIErrorParams{Msg: msg, Err: errors.New(apperr.Message(err))}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		util.CallErrorNotFound(c, params)
	case errors.Is(err, apperr.ErrValidation):
		util.CallUserError(c, params)
	case errors.Is(err, apperr.ErrForbidden):
		actor, _ := middleware.GetActor(c)
		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventForbiddenAccess,
			UserID:    actor.UserID,
			Role:      string(actor.Role),
			IP:        c.ClientIP(),
			RequestID: middleware.GetRequestID(c),
			Resource:  fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path),
			Message:   apperr.Message(err),
		})
		util.CallForbidden(c, params)
	default:
		h.log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg(msg)
		util.CallServerError(c, util.APIErrorParams{Msg: msg, Err: err})
	}
}

func actorOrAbort(c *gin.Context) (authorize.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Unauthorized", Err: errors.New("no authenticated user")})
		return authorize.Actor{}, false
	}
	return actor, true
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Invalid %s", name),
			Err: fmt.Errorf("%s must be a positive integer", name),
		})
		return 0, false
	}
	return uint(v), true
}

func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	d, err := schedule.ParseDate(c.Param(name))
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid visit date", Err: err})
		return time.Time{}, false
	}
	return d, true
}

func parseOptionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Invalid %s", name),
			Err: fmt.Errorf("%s must be a positive integer", name),
		})
		return nil, false
	}
	id := uint(v)
	return &id, true
}
