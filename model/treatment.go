package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Regimen identifies the drug regimen a treatment follows.
type Regimen string

const (
	// RegimenFirstLine is the standard 6-month first-line regimen.
	RegimenFirstLine Regimen = "2HRZE/4HR"
	// RegimenFirstLineContinuation is the 6-month first-line regimen with ethambutol kept in the continuation phase.
	RegimenFirstLineContinuation Regimen = "2HRZE/4HRE"
	// RegimenMDR is the multidrug-resistant regimen.
	RegimenMDR Regimen = "MDR-TB"
	// RegimenOther covers individualised regimens.
	RegimenOther Regimen = "Other"
)

// Regimens lists every accepted regimen.
var Regimens = []Regimen{RegimenFirstLine, RegimenFirstLineContinuation, RegimenMDR, RegimenOther}

// Valid reports whether r is one of the accepted regimens.
func (r Regimen) Valid() bool {
	for _, v := range Regimens {
		if v == r {
			return true
		}
	}
	return false
}

// TreatmentStatus is the lifecycle status of a treatment.
type TreatmentStatus string

const (
	StatusPlanned   TreatmentStatus = "planned"
	StatusOngoing   TreatmentStatus = "ongoing"
	StatusCompleted TreatmentStatus = "completed"
	StatusDefaulted TreatmentStatus = "defaulted"
	StatusFailed    TreatmentStatus = "failed"
	StatusStopped   TreatmentStatus = "stopped"
)

// TreatmentStatuses lists every treatment status in reporting order.
var TreatmentStatuses = []TreatmentStatus{
	StatusPlanned, StatusOngoing, StatusCompleted, StatusDefaulted, StatusFailed, StatusStopped,
}

// Valid reports whether s is a known treatment status.
func (s TreatmentStatus) Valid() bool {
	for _, v := range TreatmentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// FollowUpStatus is the stored status of a follow-up entry.
type FollowUpStatus string

const (
	FollowUpScheduled FollowUpStatus = "scheduled"
	FollowUpCompleted FollowUpStatus = "completed"
	FollowUpMissed    FollowUpStatus = "missed"
)

// ParseFollowUpStatus normalises user input into a FollowUpStatus.
func ParseFollowUpStatus(s string) (FollowUpStatus, bool) {
	switch FollowUpStatus(strings.ToLower(strings.TrimSpace(s))) {
	case FollowUpCompleted:
		return FollowUpCompleted, true
	case FollowUpMissed:
		return FollowUpMissed, true
	case FollowUpScheduled:
		return FollowUpScheduled, true
	}
	return "", false
}

// VisitStatus is the display status of one scheduled visit date.
type VisitStatus string

const (
	VisitScheduled VisitStatus = "Scheduled"
	VisitCompleted VisitStatus = "Completed"
	VisitMissed    VisitStatus = "Missed"
	VisitOverdue   VisitStatus = "Overdue/Missed"
)

// Treatment is one TB treatment course with its planned visit schedule.
type Treatment struct {
	gorm.Model
	PatientID       uint                           `json:"patient_id" gorm:"not null;index"`
	DiagnosisID     uint                           `json:"diagnosis_id" gorm:"not null;index"`
	CreatedBy       uint                           `json:"created_by"`
	Regimen         Regimen                        `json:"regimen" gorm:"type:varchar(32);not null;index"`
	WeightKg        *float64                       `json:"weight_kg,omitempty"`
	StartDate       time.Time                      `json:"start_date" gorm:"not null"`
	ExpectedEndDate time.Time                      `json:"expected_end_date"`
	ActualEndDate   *time.Time                     `json:"actual_end_date,omitempty"`
	Status          TreatmentStatus                `json:"status" gorm:"type:varchar(16);not null;index"`
	VisitSchedule   datatypes.JSONSlice[time.Time] `json:"visit_schedule"`
	Archived        bool                           `json:"archived" gorm:"not null;default:false;index"`
	FollowUps       []FollowUp                     `json:"follow_ups,omitempty" gorm:"foreignKey:TreatmentID"`
}

// FollowUp is one recorded outcome for a scheduled visit. Entries are only
// ever appended; the latest entry for a date supersedes earlier ones.
type FollowUp struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time      `json:"recorded_at"`
	TreatmentID uint           `json:"treatment_id" gorm:"not null;index"`
	VisitDate   time.Time      `json:"date" gorm:"not null;index"`
	WeightKg    *float64       `json:"weight_kg,omitempty"`
	PillCount   *int           `json:"pill_count,omitempty"`
	SideEffects string         `json:"side_effects,omitempty" gorm:"type:text"`
	Notes       string         `json:"notes,omitempty" gorm:"type:text"`
	Status      FollowUpStatus `json:"status" gorm:"type:varchar(16);not null"`
	RecordedBy  uint           `json:"recorded_by"`
}

// AfterFind normalises VisitDate to UTC; some drivers return timestamps in
// the server's local zone.
func (f *FollowUp) AfterFind(tx *gorm.DB) error {
	f.VisitDate = f.VisitDate.UTC()
	return nil
}
