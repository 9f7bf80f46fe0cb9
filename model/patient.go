package model

import "gorm.io/gorm"

// Patient is the slice of the patient record the treatment services rely on:
// identity and the optional login account linked to it.
type Patient struct {
	gorm.Model
	PatientCode string `json:"patient_code" gorm:"size:32;uniqueIndex"`
	FullName    string `json:"full_name"`
	UserID      *uint  `json:"user_id,omitempty" gorm:"uniqueIndex"`
}
