package model

import (
	"time"

	"gorm.io/gorm"
)

// Appointment is a follow-up visit booked for a patient when a treatment is created.
type Appointment struct {
	gorm.Model
	Reference   string    `json:"reference" gorm:"size:36;uniqueIndex"`
	PatientID   uint      `json:"patient_id" gorm:"not null;index"`
	TreatmentID uint      `json:"treatment_id" gorm:"not null;index"`
	Date        time.Time `json:"date" gorm:"not null"`
	StartTime   string    `json:"start_time" gorm:"size:5"`
	EndTime     string    `json:"end_time" gorm:"size:5"`
	Purpose     string    `json:"purpose" gorm:"size:64"`
	Status      string    `json:"status" gorm:"size:16;not null;default:scheduled"`
	CreatedBy   uint      `json:"created_by"`
}
