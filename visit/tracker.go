// Package visit records follow-up visit outcomes against a treatment's
// planned schedule and derives the per-date display status.
package visit

import (
	"context"
	"strings"
	"time"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/model"
	"github.com/ariebrainware/tbcare/schedule"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/ariebrainware/tbcare/visit")

// Store is the persistence the tracker needs. treatment.Repository satisfies it.
type Store interface {
	GetByID(ctx context.Context, id uint) (*model.Treatment, error)
	AppendFollowUp(ctx context.Context, f *model.FollowUp) error
}

// Invalidator is notified after a follow-up is recorded so derived data
// (adherence summaries) can be refreshed.
type Invalidator interface {
	Invalidate(ctx context.Context, treatmentID uint) error
}

// Payload is the body of a visit recording. Nil fields are absent.
type Payload struct {
	WeightKg    *float64              `json:"weight_kg"`
	PillCount   *int                  `json:"pill_count"`
	SideEffects *string               `json:"side_effects"`
	Notes       *string               `json:"notes"`
	Status      *model.FollowUpStatus `json:"status"`
}

type Tracker struct {
	store       Store
	invalidator Invalidator
	log         zerolog.Logger
	now         func() time.Time
}

func NewTracker(store Store, log zerolog.Logger) *Tracker {
	return &Tracker{
		store: store,
		log:   log.With().Str("component", "visit").Logger(),
		now:   time.Now,
	}
}

// SetInvalidator registers a hook run after every recorded follow-up.
func (t *Tracker) SetInvalidator(inv Invalidator) {
	t.invalidator = inv
}

// SetClock replaces the time source that decides which dates are overdue.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Today is the current UTC calendar date.
func (t *Tracker) Today() time.Time {
	return schedule.DateOf(t.now().UTC())
}

// Rows returns the reconciled display rows of tr as of today.
func (t *Tracker) Rows(tr *model.Treatment) []Row {
	return Reconcile(tr.VisitSchedule, tr.FollowUps, t.Today())
}

// MarkComplete records a completed visit. Weight and pill count are required.
func (t *Tracker) MarkComplete(ctx context.Context, treatmentID uint, date time.Time, p Payload, recordedBy uint) (*model.FollowUp, error) {
	ctx, span := startSpan(ctx, "visit.MarkComplete", treatmentID, date)
	defer span.End()

	if err := requireCompletionFields(p.WeightKg, p.PillCount); err != nil {
		return nil, err
	}
	if err := validateMeasurements(p.WeightKg, p.PillCount); err != nil {
		return nil, err
	}
	tr, err := t.scheduled(ctx, treatmentID, date)
	if err != nil {
		return nil, err
	}
	entry := &model.FollowUp{
		TreatmentID: tr.ID,
		VisitDate:   schedule.DateOf(date),
		WeightKg:    p.WeightKg,
		PillCount:   p.PillCount,
		SideEffects: deref(p.SideEffects),
		Notes:       deref(p.Notes),
		Status:      model.FollowUpCompleted,
		RecordedBy:  recordedBy,
	}
	return t.append(ctx, entry)
}

// MarkMissed records a missed visit. Only notes are kept.
func (t *Tracker) MarkMissed(ctx context.Context, treatmentID uint, date time.Time, notes string, recordedBy uint) (*model.FollowUp, error) {
	ctx, span := startSpan(ctx, "visit.MarkMissed", treatmentID, date)
	defer span.End()

	tr, err := t.scheduled(ctx, treatmentID, date)
	if err != nil {
		return nil, err
	}
	entry := &model.FollowUp{
		TreatmentID: tr.ID,
		VisitDate:   schedule.DateOf(date),
		Notes:       strings.TrimSpace(notes),
		Status:      model.FollowUpMissed,
		RecordedBy:  recordedBy,
	}
	return t.append(ctx, entry)
}

// EditVisit appends a correction for a date that already has an entry. Fields
// absent from p are carried over from the current authoritative entry, and so
// is its status unless p overrides it.
func (t *Tracker) EditVisit(ctx context.Context, treatmentID uint, date time.Time, p Payload, recordedBy uint) (*model.FollowUp, error) {
	ctx, span := startSpan(ctx, "visit.EditVisit", treatmentID, date)
	defer span.End()

	tr, err := t.store.GetByID(ctx, treatmentID)
	if err != nil {
		return nil, err
	}
	history := History(tr.FollowUps, date)
	if len(history) == 0 {
		return nil, apperr.Validation("no visit has been recorded on %s yet", schedule.Key(date))
	}
	prev := history[len(history)-1]

	entry := &model.FollowUp{
		TreatmentID: tr.ID,
		VisitDate:   schedule.DateOf(date),
		WeightKg:    prev.WeightKg,
		PillCount:   prev.PillCount,
		SideEffects: prev.SideEffects,
		Notes:       prev.Notes,
		Status:      prev.Status,
		RecordedBy:  recordedBy,
	}
	if p.WeightKg != nil {
		entry.WeightKg = p.WeightKg
	}
	if p.PillCount != nil {
		entry.PillCount = p.PillCount
	}
	if p.SideEffects != nil {
		entry.SideEffects = *p.SideEffects
	}
	if p.Notes != nil {
		entry.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.Status != nil {
		if *p.Status != model.FollowUpCompleted && *p.Status != model.FollowUpMissed {
			return nil, apperr.Validation("status must be completed or missed, got %q", *p.Status)
		}
		entry.Status = *p.Status
	}
	if entry.Status == model.FollowUpCompleted {
		if err := requireCompletionFields(entry.WeightKg, entry.PillCount); err != nil {
			return nil, err
		}
	}
	if err := validateMeasurements(entry.WeightKg, entry.PillCount); err != nil {
		return nil, err
	}
	return t.append(ctx, entry)
}

// History returns all entries recorded for one date of a treatment.
func (t *Tracker) History(ctx context.Context, treatmentID uint, date time.Time) ([]model.FollowUp, error) {
	tr, err := t.store.GetByID(ctx, treatmentID)
	if err != nil {
		return nil, err
	}
	return History(tr.FollowUps, date), nil
}

func (t *Tracker) scheduled(ctx context.Context, treatmentID uint, date time.Time) (*model.Treatment, error) {
	tr, err := t.store.GetByID(ctx, treatmentID)
	if err != nil {
		return nil, err
	}
	for _, d := range tr.VisitSchedule {
		if schedule.SameDay(d, date) {
			return tr, nil
		}
	}
	return nil, apperr.Validation("%s is not a scheduled visit date of treatment %d", schedule.Key(date), treatmentID)
}

func (t *Tracker) append(ctx context.Context, entry *model.FollowUp) (*model.FollowUp, error) {
	if err := t.store.AppendFollowUp(ctx, entry); err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		return nil, err
	}
	if t.invalidator != nil {
		if err := t.invalidator.Invalidate(ctx, entry.TreatmentID); err != nil {
			t.log.Warn().Err(err).Uint("treatment_id", entry.TreatmentID).Msg("adherence cache invalidation failed")
		}
	}
	t.log.Info().
		Uint("treatment_id", entry.TreatmentID).
		Str("date", schedule.Key(entry.VisitDate)).
		Str("status", string(entry.Status)).
		Uint("recorded_by", entry.RecordedBy).
		Msg("follow-up recorded")
	return entry, nil
}

func requireCompletionFields(weight *float64, pills *int) error {
	var missing []string
	if weight == nil {
		missing = append(missing, "weight_kg")
	}
	if pills == nil {
		missing = append(missing, "pill_count")
	}
	if len(missing) > 0 {
		return apperr.Validation("a completed visit requires %s", strings.Join(missing, " and "))
	}
	return nil
}

func validateMeasurements(weight *float64, pills *int) error {
	if weight != nil && *weight <= 0 {
		return apperr.Validation("weight_kg must be positive")
	}
	if pills != nil && *pills < 0 {
		return apperr.Validation("pill_count cannot be negative")
	}
	return nil
}

func startSpan(ctx context.Context, name string, treatmentID uint, date time.Time) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("treatment.id", int64(treatmentID)),
		attribute.String("visit.date", schedule.Key(date)),
	))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
