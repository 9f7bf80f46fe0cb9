package endpoint

import (
	"net/http"

	"github.com/ariebrainware/tbcare/authorize"
	"github.com/ariebrainware/tbcare/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterOptions configures the HTTP surface.
type RouterOptions struct {
	JWTSecret []byte
	Logger    zerolog.Logger
	RateLimit middleware.RateLimitConfig
}

// NewRouter wires middleware and routes onto a new gin engine.
func NewRouter(h *Handler, authz *authorize.Authorizer, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.EndpointCallLogger(opts.Logger))
	r.Use(middleware.CORSMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "msg": "tbcare treatment service"})
	})

	api := r.Group("/")
	api.Use(middleware.Authenticate(opts.JWTSecret))
	api.Use(middleware.RateLimiter(opts.RateLimit))

	perm := func(res authorize.Resource, act authorize.Action) gin.HandlerFunc {
		return middleware.RequirePermission(authz, res, act)
	}
	tr, vi, rep := authorize.ResourceTreatment, authorize.ResourceVisit, authorize.ResourceReport

	treatments := api.Group("/treatment")
	{
		treatments.GET("", perm(tr, authorize.ActionList), h.ListTreatments)
		treatments.POST("", perm(tr, authorize.ActionCreate), h.CreateTreatment)
		treatments.GET("/:id", perm(tr, authorize.ActionRead), h.GetTreatment)
		treatments.PATCH("/:id", perm(tr, authorize.ActionUpdate), h.UpdateTreatment)
		treatments.DELETE("/:id", perm(tr, authorize.ActionArchive), h.ArchiveTreatment)
		treatments.POST("/:id/complete", perm(tr, authorize.ActionComplete), h.CompleteTreatment)
		treatments.POST("/:id/reschedule", perm(tr, authorize.ActionReschedule), h.RescheduleTreatment)

		treatments.GET("/:id/visits", perm(vi, authorize.ActionRead), h.ListVisits)
		treatments.GET("/:id/visits/:date/history", perm(vi, authorize.ActionRead), h.VisitHistory)
		treatments.POST("/:id/visits/:date/complete", perm(vi, authorize.ActionRecord), h.CompleteVisit)
		treatments.POST("/:id/visits/:date/missed", perm(vi, authorize.ActionRecord), h.MissVisit)
		treatments.PATCH("/:id/visits/:date", perm(vi, authorize.ActionRecord), h.EditVisit)

		treatments.GET("/:id/adherence", perm(rep, authorize.ActionRead), h.TreatmentAdherence)
	}

	api.GET("/patient/:id/adherence", perm(rep, authorize.ActionRead), h.PatientAdherence)
	api.GET("/report/outcomes", perm(rep, authorize.ActionRead), h.OutcomeReport)

	return r
}
