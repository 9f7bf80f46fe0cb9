package treatment

import (
	"context"
	"time"

	"github.com/ariebrainware/tbcare/model"
)

// ListFilter narrows a treatment listing.
type ListFilter struct {
	PatientID       *uint
	Status          model.TreatmentStatus
	Regimen         model.Regimen
	IncludeArchived bool
	WithFollowUps   bool
	Limit           int
	Offset          int
}

// Repository persists treatments and their follow-up log.
type Repository interface {
	Create(ctx context.Context, t *model.Treatment) error
	// GetByID returns the treatment with its follow-ups in recording order.
	GetByID(ctx context.Context, id uint) (*model.Treatment, error)
	Save(ctx context.Context, t *model.Treatment) error
	List(ctx context.Context, f ListFilter) ([]model.Treatment, int64, error)
	AppendFollowUp(ctx context.Context, f *model.FollowUp) error
	ListFollowUps(ctx context.Context, treatmentID uint) ([]model.FollowUp, error)
}

// PatientLookup resolves patients owned by the registration subsystem.
type PatientLookup interface {
	FindPatientByID(ctx context.Context, id uint) (*model.Patient, error)
	FindPatientByUserID(ctx context.Context, userID uint) (*model.Patient, error)
}

// DiagnosisLookup resolves diagnoses owned by the diagnosis subsystem.
type DiagnosisLookup interface {
	FindDiagnosisByID(ctx context.Context, id uint) (*model.Diagnosis, error)
}

// AppointmentRequest is one scheduling intent emitted per visit date.
type AppointmentRequest struct {
	PatientID   uint
	TreatmentID uint
	Date        time.Time
	CreatedBy   uint
}

// AppointmentScheduler books follow-up appointments.
type AppointmentScheduler interface {
	CreateAppointment(ctx context.Context, req AppointmentRequest) (*model.Appointment, error)
}
