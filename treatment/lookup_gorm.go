package treatment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormPatients struct{ db *gorm.DB }

// NewGormPatientLookup reads patients from the shared clinic database.
func NewGormPatientLookup(db *gorm.DB) PatientLookup {
	return &gormPatients{db: db}
}

func (l *gormPatients) FindPatientByID(ctx context.Context, id uint) (*model.Patient, error) {
	var p model.Patient
	err := l.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.ErrNotFound, err, fmt.Sprintf("patient %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("find patient %d: %w", id, err)
	}
	return &p, nil
}

func (l *gormPatients) FindPatientByUserID(ctx context.Context, userID uint) (*model.Patient, error) {
	var p model.Patient
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.ErrNotFound, err, fmt.Sprintf("no patient profile linked to user %d", userID))
	}
	if err != nil {
		return nil, fmt.Errorf("find patient for user %d: %w", userID, err)
	}
	return &p, nil
}

type gormDiagnoses struct{ db *gorm.DB }

// NewGormDiagnosisLookup reads diagnoses from the shared clinic database.
func NewGormDiagnosisLookup(db *gorm.DB) DiagnosisLookup {
	return &gormDiagnoses{db: db}
}

func (l *gormDiagnoses) FindDiagnosisByID(ctx context.Context, id uint) (*model.Diagnosis, error) {
	var d model.Diagnosis
	err := l.db.WithContext(ctx).First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.ErrNotFound, err, fmt.Sprintf("diagnosis %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("find diagnosis %d: %w", id, err)
	}
	return &d, nil
}

// AppointmentSlot is the default time slot booked for generated follow-up visits.
type AppointmentSlot struct {
	Start    string
	Duration time.Duration
}

type gormAppointments struct {
	db   *gorm.DB
	slot AppointmentSlot
}

// NewGormAppointmentScheduler books appointments as rows in the appointments table.
func NewGormAppointmentScheduler(db *gorm.DB, slot AppointmentSlot) AppointmentScheduler {
	if slot.Start == "" {
		slot.Start = "09:00"
	}
	if slot.Duration <= 0 {
		slot.Duration = 30 * time.Minute
	}
	return &gormAppointments{db: db, slot: slot}
}

func (s *gormAppointments) CreateAppointment(ctx context.Context, req AppointmentRequest) (*model.Appointment, error) {
	start, err := time.Parse("15:04", s.slot.Start)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment slot start %q: %w", s.slot.Start, err)
	}
	appt := model.Appointment{
		Reference:   uuid.NewString(),
		PatientID:   req.PatientID,
		TreatmentID: req.TreatmentID,
		Date:        req.Date,
		StartTime:   start.Format("15:04"),
		EndTime:     start.Add(s.slot.Duration).Format("15:04"),
		Purpose:     "TB treatment follow-up",
		Status:      "scheduled",
		CreatedBy:   req.CreatedBy,
	}
	if err := s.db.WithContext(ctx).Create(&appt).Error; err != nil {
		return nil, fmt.Errorf("create appointment on %s: %w", req.Date.Format("2006-01-02"), err)
	}
	return &appt, nil
}
