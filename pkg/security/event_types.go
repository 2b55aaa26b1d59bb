// pkg/security/event_types.go
package security

import (
	"fmt"
	"slices"

	"go.uber.org/zap/zapcore"
)

// EventType constants for string-based event type handling
const (
	EventTypeLoginSuccess     = "login_success"
	EventTypeLoginFailed      = "login_failed"
	EventTypeCompanyCreated   = "company_created"
	EventTypeCompanyDeleted   = "company_deleted"
	EventTypeUserCreated      = "user_created"
	EventTypeUserDeleted      = "user_deleted"
	EventTypeAccessDenied     = "access_denied"
	EventTypeInvalidToken     = "invalid_token"
	EventTypeSecurityAlert    = "security_alert"
	EventTypeAssistantCommand = "assistant_command"
)

// Severity constants for string-based severity handling
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

var eventTypes = []string{
	EventTypeLoginSuccess,
	EventTypeLoginFailed,
	EventTypeCompanyCreated,
	EventTypeCompanyDeleted,
	EventTypeUserCreated,
	EventTypeUserDeleted,
	EventTypeAccessDenied,
	EventTypeInvalidToken,
	EventTypeSecurityAlert,
	EventTypeAssistantCommand,
}

// IsValidEventType checks if the event type string is valid
func IsValidEventType(eventType string) bool {
	return slices.Contains(eventTypes, eventType)
}

// LogLevel maps a severity to the level its events are logged at.
// Unknown severities are reported as an error.
func LogLevel(severity string) (zapcore.Level, error) {
	switch severity {
	case SeverityLow:
		return zapcore.InfoLevel, nil
	case SeverityMedium:
		return zapcore.WarnLevel, nil
	case SeverityHigh, SeverityCritical:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown severity: %s", severity)
	}
}
