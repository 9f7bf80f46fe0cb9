package util

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/ariebrainware/tbcare/model"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityEventType represents different types of security events
type SecurityEventType string

const (
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventForbiddenAccess    SecurityEventType = "FORBIDDEN_ACCESS"
	EventRateLimitExceeded  SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity SecurityEventType = "SUSPICIOUS_ACTIVITY"
	EventTreatmentArchived  SecurityEventType = "TREATMENT_ARCHIVED"
	EventTreatmentUpdated   SecurityEventType = "TREATMENT_UPDATED"
)

// SecurityEvent represents a security event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	UserID    uint
	Role      string
	IP        string
	RequestID string
	Resource  string
	Message   string
	Details   map[string]interface{}
}

var (
	securityMu     sync.RWMutex
	securityLogger = zerolog.New(os.Stdout).With().Timestamp().Str("channel", "security").Logger()
	securityDB     *gorm.DB
)

// SetSecurityLogger replaces the logger security events are written to.
func SetSecurityLogger(l zerolog.Logger) {
	securityMu.Lock()
	defer securityMu.Unlock()
	securityLogger = l.With().Str("channel", "security").Logger()
}

// SetSecurityLoggerDB sets a gorm DB instance used by the security logger.
// Call this during application startup (e.g. in main) after DB initialization.
func SetSecurityLoggerDB(db *gorm.DB) {
	securityMu.Lock()
	defer securityMu.Unlock()
	securityDB = db
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogSecurityEvent logs a security event and persists it when a database is
// configured. Persistence is best-effort.
func LogSecurityEvent(event SecurityEvent) {
	securityMu.RLock()
	logger := securityLogger
	db := securityDB
	securityMu.RUnlock()

	logger.Warn().
		Str("event", string(event.EventType)).
		Uint("user_id", event.UserID).
		Str("role", sanitizeLogValue(event.Role)).
		Str("ip", sanitizeLogValue(event.IP)).
		Str("request_id", sanitizeLogValue(event.RequestID)).
		Str("resource", sanitizeLogValue(event.Resource)).
		Int("details", len(event.Details)).
		Msg(sanitizeLogValue(event.Message))

	if db == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}
	entry := model.SecurityLog{
		EventType: string(event.EventType),
		UserID:    event.UserID,
		Role:      sanitizeLogValue(event.Role),
		IP:        sanitizeLogValue(event.IP),
		RequestID: sanitizeLogValue(event.RequestID),
		Resource:  sanitizeLogValue(event.Resource),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.Error().Err(err).Msg("failed to persist security event")
	}
}
