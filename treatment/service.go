// Package treatment manages the lifecycle of TB treatment courses: creation
// against a confirmed diagnosis, role-restricted updates, completion,
// rescheduling and archival.
package treatment

import (
	"context"
	"errors"
	"time"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/authorize"
	"github.com/ariebrainware/tbcare/model"
	"github.com/ariebrainware/tbcare/schedule"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/ariebrainware/tbcare/treatment")

// CreateInput is the payload of Create.
type CreateInput struct {
	PatientID   uint
	DiagnosisID uint
	Regimen     model.Regimen
	StartDate   time.Time
	WeightKg    *float64
	// Status is the initial status, "ongoing" when empty. Only "ongoing" and
	// "planned" are accepted.
	Status    model.TreatmentStatus
	CreatorID uint
}

// CreateResult is the created treatment and the appointments booked for it.
type CreateResult struct {
	Treatment    *model.Treatment    `json:"treatment"`
	Appointments []model.Appointment `json:"appointments"`
}

type Service struct {
	repo         Repository
	patients     PatientLookup
	diagnoses    DiagnosisLookup
	appointments AppointmentScheduler
	log          zerolog.Logger
	now          func() time.Time
}

func NewService(repo Repository, patients PatientLookup, diagnoses DiagnosisLookup, appointments AppointmentScheduler, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		diagnoses:    diagnoses,
		appointments: appointments,
		log:          log.With().Str("component", "treatment").Logger(),
		now:          time.Now,
	}
}

// SetClock replaces the time source used for completion timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

var initialStatuses = map[model.TreatmentStatus]bool{
	model.StatusOngoing: true,
	model.StatusPlanned: true,
}

// Create validates the patient and diagnosis, computes the visit schedule,
// persists the treatment and books one appointment per visit date.
//
// Booking happens after the treatment is stored. If a booking fails the
// treatment is kept, the appointments booked so far are returned together
// with a *SchedulingError.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	ctx, span := tracer.Start(ctx, "treatment.Create", trace.WithAttributes(
		attribute.Int64("patient.id", int64(in.PatientID)),
		attribute.Int64("diagnosis.id", int64(in.DiagnosisID)),
		attribute.String("treatment.regimen", string(in.Regimen)),
	))
	defer span.End()

	if _, err := s.patients.FindPatientByID(ctx, in.PatientID); err != nil {
		return nil, err
	}
	diagnosis, err := s.diagnoses.FindDiagnosisByID(ctx, in.DiagnosisID)
	if err != nil {
		return nil, err
	}
	if !diagnosis.IsConfirmedTB() {
		return nil, apperr.Validation("cannot start treatment: diagnosis %d is %q, TB is not confirmed", diagnosis.ID, diagnosis.Type)
	}
	if diagnosis.PatientID != in.PatientID {
		return nil, apperr.Validation("diagnosis %d does not belong to patient %d", diagnosis.ID, in.PatientID)
	}
	if !in.Regimen.Valid() {
		return nil, apperr.Validation("invalid regimen: %s", in.Regimen)
	}
	if in.StartDate.IsZero() {
		return nil, apperr.Validation("start_date is required")
	}
	if err := validateWeight(in.WeightKg); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = model.StatusOngoing
	}
	if !initialStatuses[in.Status] {
		return nil, apperr.Validation("a new treatment must be ongoing or planned, got %q", in.Status)
	}

	plan := schedule.Compute(in.StartDate, in.Regimen)
	t := &model.Treatment{
		PatientID:       in.PatientID,
		DiagnosisID:     in.DiagnosisID,
		CreatedBy:       in.CreatorID,
		Regimen:         in.Regimen,
		WeightKg:        in.WeightKg,
		StartDate:       schedule.DateOf(in.StartDate),
		ExpectedEndDate: plan.ExpectedEndDate,
		Status:          in.Status,
		VisitSchedule:   plan.VisitDates,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("treatment.id", int64(t.ID)))

	result := &CreateResult{Treatment: t, Appointments: make([]model.Appointment, 0, len(plan.VisitDates))}
	for _, date := range plan.VisitDates {
		appt, err := s.appointments.CreateAppointment(ctx, AppointmentRequest{
			PatientID:   t.PatientID,
			TreatmentID: t.ID,
			Date:        date,
			CreatedBy:   in.CreatorID,
		})
		if err != nil {
			serr := &SchedulingError{
				TreatmentID: t.ID,
				Booked:      len(result.Appointments),
				Requested:   len(plan.VisitDates),
				Err:         err,
			}
			span.RecordError(serr)
			s.log.Error().Err(err).
				Uint("treatment_id", t.ID).
				Str("visit_date", schedule.Key(date)).
				Int("booked", serr.Booked).
				Int("requested", serr.Requested).
				Msg("follow-up appointment booking stopped")
			return result, serr
		}
		result.Appointments = append(result.Appointments, *appt)
	}

	s.log.Info().Uint("treatment_id", t.ID).Uint("patient_id", t.PatientID).
		Str("regimen", string(t.Regimen)).Int("visits", len(t.VisitSchedule)).
		Msg("treatment created")
	return result, nil
}

// Update applies a partial update after filtering it through the role's
// field allow-list. The visit schedule is never recomputed here; use
// Reschedule for that.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput, actor authorize.Actor) (*model.Treatment, error) {
	ctx, span := tracer.Start(ctx, "treatment.Update", trace.WithAttributes(
		attribute.Int64("treatment.id", int64(id)),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer span.End()

	in, err := restrictUpdate(actor.Role, in)
	if err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Regimen != nil {
		if !in.Regimen.Valid() {
			return nil, apperr.Validation("invalid regimen: %s", *in.Regimen)
		}
		t.Regimen = *in.Regimen
	}
	if in.StartDate != nil {
		if in.StartDate.IsZero() {
			return nil, apperr.Validation("start_date cannot be empty")
		}
		t.StartDate = schedule.DateOf(*in.StartDate)
	}
	if in.WeightKg != nil {
		if err := validateWeight(in.WeightKg); err != nil {
			return nil, err
		}
		t.WeightKg = in.WeightKg
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperr.Validation("invalid status: %s", *in.Status)
		}
		if *in.Status == model.StatusCompleted && t.Status != model.StatusCompleted {
			end := s.now().UTC()
			t.ActualEndDate = &end
		}
		t.Status = *in.Status
	}

	if err := s.repo.Save(ctx, t); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return t, nil
}

// Complete marks the treatment completed as of now. Completing an already
// completed treatment refreshes its end date.
func (s *Service) Complete(ctx context.Context, id uint) (*model.Treatment, error) {
	ctx, span := tracer.Start(ctx, "treatment.Complete", trace.WithAttributes(attribute.Int64("treatment.id", int64(id))))
	defer span.End()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	end := s.now().UTC()
	t.Status = model.StatusCompleted
	t.ActualEndDate = &end
	if err := s.repo.Save(ctx, t); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return t, nil
}

// Archive soft deletes the treatment. Follow-ups are left untouched.
func (s *Service) Archive(ctx context.Context, id uint) (*model.Treatment, error) {
	ctx, span := tracer.Start(ctx, "treatment.Archive", trace.WithAttributes(attribute.Int64("treatment.id", int64(id))))
	defer span.End()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Archived = true
	if err := s.repo.Save(ctx, t); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return t, nil
}

// Reschedule regenerates the visit schedule and expected end date from the
// treatment's current regimen and start date.
func (s *Service) Reschedule(ctx context.Context, id uint) (*model.Treatment, error) {
	ctx, span := tracer.Start(ctx, "treatment.Reschedule", trace.WithAttributes(attribute.Int64("treatment.id", int64(id))))
	defer span.End()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == model.StatusCompleted {
		return nil, apperr.Validation("treatment %d is completed and cannot be rescheduled", id)
	}
	plan := schedule.Compute(t.StartDate, t.Regimen)
	t.ExpectedEndDate = plan.ExpectedEndDate
	t.VisitSchedule = plan.VisitDates
	if err := s.repo.Save(ctx, t); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.log.Info().Uint("treatment_id", t.ID).Str("regimen", string(t.Regimen)).
		Int("visits", len(t.VisitSchedule)).Msg("treatment rescheduled")
	return t, nil
}

// Get returns one treatment with its follow-ups. Patients may only read
// their own treatments.
func (s *Service) Get(ctx context.Context, id uint, actor authorize.Actor) (*model.Treatment, error) {
	ctx, span := tracer.Start(ctx, "treatment.Get", trace.WithAttributes(attribute.Int64("treatment.id", int64(id))))
	defer span.End()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.CheckAccess(ctx, actor, t); err != nil {
		return nil, err
	}
	return t, nil
}

// CheckAccess reports Forbidden when a patient actor reads someone else's
// treatment. Staff are always allowed.
func (s *Service) CheckAccess(ctx context.Context, actor authorize.Actor, t *model.Treatment) error {
	if !actor.IsPatient() {
		return nil
	}
	own, err := s.ownPatientID(ctx, actor)
	if err != nil {
		return err
	}
	if own != t.PatientID {
		return apperr.Forbidden("Access denied")
	}
	return nil
}

// List returns a page of treatments and the total count. Patient actors are
// always scoped to their own patient profile.
func (s *Service) List(ctx context.Context, actor authorize.Actor, f ListFilter) ([]model.Treatment, int64, error) {
	ctx, span := tracer.Start(ctx, "treatment.List")
	defer span.End()

	scope, err := s.ResolvePatientScope(ctx, actor, f.PatientID)
	if err != nil {
		return nil, 0, err
	}
	f.PatientID = scope
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("invalid status: %s", f.Status)
	}
	if f.Regimen != "" && !f.Regimen.Valid() {
		return nil, 0, apperr.Validation("invalid regimen: %s", f.Regimen)
	}
	return s.repo.List(ctx, f)
}

// ResolvePatientScope returns the patient id a query must be restricted to.
// For staff it is requested (possibly nil), which must name an existing
// patient. For patients it is their own profile, and asking for another
// patient is Forbidden.
func (s *Service) ResolvePatientScope(ctx context.Context, actor authorize.Actor, requested *uint) (*uint, error) {
	if !actor.IsPatient() {
		if requested != nil {
			if _, err := s.patients.FindPatientByID(ctx, *requested); err != nil {
				return nil, err
			}
		}
		return requested, nil
	}
	own, err := s.ownPatientID(ctx, actor)
	if err != nil {
		return nil, err
	}
	if requested != nil && *requested != own {
		return nil, apperr.Forbidden("Access denied")
	}
	return &own, nil
}

func (s *Service) ownPatientID(ctx context.Context, actor authorize.Actor) (uint, error) {
	p, err := s.patients.FindPatientByUserID(ctx, actor.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return 0, apperr.Forbidden("Access denied: no patient profile is linked to this account")
	}
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func validateWeight(w *float64) error {
	if w != nil && *w <= 0 {
		return apperr.Validation("weight_kg must be positive, got %v", *w)
	}
	return nil
}
