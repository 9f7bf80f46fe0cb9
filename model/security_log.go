package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityLog is a persisted security-relevant event: denied access,
// rate limiting, archival of clinical records.
type SecurityLog struct {
	gorm.Model
	EventType string         `json:"event_type" gorm:"column:event_type;type:varchar(64);index"`
	UserID    uint           `json:"user_id" gorm:"column:user_id;index"`
	Role      string         `json:"role" gorm:"column:role;type:varchar(32)"`
	IP        string         `json:"ip" gorm:"column:ip;type:varchar(45)"`
	RequestID string         `json:"request_id" gorm:"column:request_id;type:varchar(64);index"`
	Resource  string         `json:"resource" gorm:"column:resource;type:varchar(255)"`
	Message   string         `json:"message" gorm:"column:message;type:text"`
	Details   datatypes.JSON `json:"details" gorm:"column:details"`
}
