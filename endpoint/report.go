package endpoint

import (
	"github.com/ariebrainware/tbcare/util"
	"github.com/gin-gonic/gin"
)

// TreatmentAdherence handles GET /treatment/:id/adherence
func (h *Handler) TreatmentAdherence(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	t, err := h.treatments.Get(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, "Failed to compute adherence", err)
		return
	}
	summary, err := h.adherence.ForTreatment(c.Request.Context(), t)
	if err != nil {
		h.respondError(c, "Failed to compute adherence", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Adherence computed", Data: summary})
}

// PatientAdherence handles GET /patient/:id/adherence
func (h *Handler) PatientAdherence(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	scope, err := h.treatments.ResolvePatientScope(c.Request.Context(), actor, &id)
	if err != nil {
		h.respondError(c, "Failed to compute adherence", err)
		return
	}
	summary, err := h.adherence.ForPatient(c.Request.Context(), *scope)
	if err != nil {
		h.respondError(c, "Failed to compute adherence", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Adherence computed", Data: summary})
}

// OutcomeReport handles GET /report/outcomes
func (h *Handler) OutcomeReport(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	patientID, ok := parseOptionalUintQuery(c, "patient_id")
	if !ok {
		return
	}

	scope, err := h.treatments.ResolvePatientScope(c.Request.Context(), actor, patientID)
	if err != nil {
		h.respondError(c, "Failed to build outcome report", err)
		return
	}
	breakdown, err := h.adherence.Outcomes(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, "Failed to build outcome report", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Outcome report built", Data: breakdown})
}
