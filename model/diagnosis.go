package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Diagnosis type labels that do not allow a treatment to start.
const (
	DiagnosisNoTB        = "No TB"
	DiagnosisSuspectedTB = "Suspected TB"
)

// Diagnosis is a recorded diagnosis for a patient.
type Diagnosis struct {
	gorm.Model
	PatientID   uint      `json:"patient_id" gorm:"not null;index"`
	Type        string    `json:"type" gorm:"size:64;not null"`
	DiagnosedAt time.Time `json:"diagnosed_at"`
	Notes       string    `json:"notes" gorm:"type:text"`
}

// IsConfirmedTB reports whether the diagnosis type is a confirmed TB classification.
func (d Diagnosis) IsConfirmedTB() bool {
	t := strings.ToLower(strings.Join(strings.Fields(d.Type), " "))
	if t == "" {
		return false
	}
	return t != strings.ToLower(DiagnosisNoTB) && t != strings.ToLower(DiagnosisSuspectedTB)
}
