package endpoint

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ariebrainware/tbcare/middleware"
	"github.com/ariebrainware/tbcare/model"
	"github.com/ariebrainware/tbcare/schedule"
	"github.com/ariebrainware/tbcare/treatment"
	"github.com/ariebrainware/tbcare/util"
	"github.com/gin-gonic/gin"
)

type createTreatmentRequest struct {
	PatientID   uint     `json:"patient_id" binding:"required"`
	DiagnosisID uint     `json:"diagnosis_id" binding:"required"`
	Regimen     string   `json:"regimen" binding:"required"`
	StartDate   string   `json:"start_date" binding:"required"`
	WeightKg    *float64 `json:"weight_kg"`
	Status      string   `json:"status"`
}

type updateTreatmentRequest struct {
	Regimen   *string  `json:"regimen"`
	StartDate *string  `json:"start_date"`
	WeightKg  *float64 `json:"weight_kg"`
	Status    *string  `json:"status"`
}

func (r updateTreatmentRequest) toInput() (treatment.UpdateInput, error) {
	in := treatment.UpdateInput{WeightKg: r.WeightKg}
	if r.Regimen != nil {
		reg := model.Regimen(*r.Regimen)
		in.Regimen = &reg
	}
	if r.StartDate != nil {
		d, err := schedule.ParseDate(*r.StartDate)
		if err != nil {
			return in, err
		}
		in.StartDate = &d
	}
	if r.Status != nil {
		st := model.TreatmentStatus(*r.Status)
		in.Status = &st
	}
	return in, nil
}

// ListTreatments handles GET /treatment
func (h *Handler) ListTreatments(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	patientID, ok := parseOptionalUintQuery(c, "patient_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	treatments, total, err := h.treatments.List(c.Request.Context(), actor, treatment.ListFilter{
		PatientID:       patientID,
		Status:          model.TreatmentStatus(c.Query("status")),
		Regimen:         model.Regimen(c.Query("regimen")),
		IncludeArchived: c.Query("include_archived") == "true",
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		h.respondError(c, "Failed to fetch treatments", err)
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Treatments fetched successfully",
		Data: map[string]interface{}{"total": total, "total_fetched": len(treatments), "treatments": treatments},
	})
}

// GetTreatment handles GET /treatment/:id
func (h *Handler) GetTreatment(c *gin.Context) {
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
		h.respondError(c, "Failed to fetch treatment", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Treatment fetched successfully", Data: t})
}

// CreateTreatment handles POST /treatment
func (h *Handler) CreateTreatment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req createTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid input data", Err: err})
		return
	}
	start, err := schedule.ParseDate(req.StartDate)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid input data", Err: err})
		return
	}

	result, err := h.treatments.Create(c.Request.Context(), treatment.CreateInput{
		PatientID:   req.PatientID,
		DiagnosisID: req.DiagnosisID,
		Regimen:     model.Regimen(req.Regimen),
		StartDate:   start,
		WeightKg:    req.WeightKg,
		Status:      model.TreatmentStatus(req.Status),
		CreatorID:   actor.UserID,
	})
	var serr *treatment.SchedulingError
	if errors.As(err, &serr) {
		util.CallServerErrorWithData(c, util.APIErrorParams{
			Msg: "Treatment created but follow-up appointments could not all be booked",
			Err: err,
		}, result)
		return
	}
	if err != nil {
		h.respondError(c, "Failed to create treatment", err)
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{Msg: "Treatment created successfully", Data: result})
}

// UpdateTreatment handles PATCH /treatment/:id
func (h *Handler) UpdateTreatment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req updateTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid input data", Err: err})
		return
	}
	in, err := req.toInput()
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid input data", Err: err})
		return
	}

	t, err := h.treatments.Update(c.Request.Context(), id, in, actor)
	if err != nil {
		h.respondError(c, "Failed to update treatment", err)
		return
	}
	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventTreatmentUpdated,
		UserID:    actor.UserID,
		Role:      string(actor.Role),
		IP:        c.ClientIP(),
		RequestID: middleware.GetRequestID(c),
		Resource:  fmt.Sprintf("treatment:%d", id),
		Message:   "treatment updated",
	})
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Treatment updated successfully", Data: t})
}

// CompleteTreatment handles POST /treatment/:id/complete
func (h *Handler) CompleteTreatment(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	t, err := h.treatments.Complete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to complete treatment", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Treatment completed", Data: t})
}

// RescheduleTreatment handles POST /treatment/:id/reschedule
func (h *Handler) RescheduleTreatment(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	t, err := h.treatments.Reschedule(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to reschedule treatment", err)
		return
	}
	if err := h.adherence.Invalidate(c.Request.Context(), id); err != nil {
		h.log.Warn().Err(err).Uint("treatment_id", id).Msg("adherence cache invalidation failed")
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Treatment rescheduled", Data: t})
}

// ArchiveTreatment handles DELETE /treatment/:id
func (h *Handler) ArchiveTreatment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	t, err := h.treatments.Archive(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to archive treatment", err)
		return
	}
	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventTreatmentArchived,
		UserID:    actor.UserID,
		Role:      string(actor.Role),
		IP:        c.ClientIP(),
		RequestID: middleware.GetRequestID(c),
		Resource:  fmt.Sprintf("treatment:%d", id),
		Message:   "treatment archived",
		Details:   map[string]interface{}{"treatment_id": id, "patient_id": t.PatientID},
	})
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Treatment archived", Data: t})
}
