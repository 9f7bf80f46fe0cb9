package endpoint

import (
	"errors"
	"io"

	"github.com/ariebrainware/tbcare/util"
	"github.com/ariebrainware/tbcare/visit"
	"github.com/gin-gonic/gin"
)

type missedVisitRequest struct {
	Notes string `json:"notes"`
}

// ListVisits handles GET /treatment/:id/visits
func (h *Handler) ListVisits(c *gin.Context) {
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
		h.respondError(c, "Failed to fetch visits", err)
		return
	}
	rows := h.visits.Rows(t)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Visits fetched successfully",
		Data: map[string]interface{}{"treatment_id": t.ID, "total": len(rows), "visits": rows},
	})
}

// VisitHistory handles GET /treatment/:id/visits/:date/history
func (h *Handler) VisitHistory(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	t, err := h.treatments.Get(c.Request.Context(), id, actor)
	if err != nil {
		h.respondError(c, "Failed to fetch visit history", err)
		return
	}
	entries := visit.History(t.FollowUps, date)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Visit history fetched successfully",
		Data: map[string]interface{}{"date": c.Param("date"), "entries": entries},
	})
}

// CompleteVisit handles POST /treatment/:id/visits/:date/complete
func (h *Handler) CompleteVisit(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	var payload visit.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid input data", Err: err})
		return
	}

	entry, err := h.visits.MarkComplete(c.Request.Context(), id, date, payload, actor.UserID)
	if err != nil {
		h.respondError(c, "Failed to record visit", err)
		return
	}
	util.CallSuccessCreated(c, util.APISuccessParams{Msg: "Visit marked as completed", Data: entry})
}

// MissVisit handles POST /treatment/:id/visits/:date/missed
func (h *Handler) MissVisit(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	var req missedVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid input data", Err: err})
		return
	}

	entry, err := h.visits.MarkMissed(c.Request.Context(), id, date, req.Notes, actor.UserID)
	if err != nil {
		h.respondError(c, "Failed to record visit", err)
		return
	}
	util.CallSuccessCreated(c, util.APISuccessParams{Msg: "Visit marked as missed", Data: entry})
}

// EditVisit handles PATCH /treatment/:id/visits/:date
func (h *Handler) EditVisit(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	var payload visit.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid input data", Err: err})
		return
	}

	entry, err := h.visits.EditVisit(c.Request.Context(), id, date, payload, actor.UserID)
	if err != nil {
		h.respondError(c, "Failed to edit visit", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Visit updated", Data: entry})
}
