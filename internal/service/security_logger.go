// internal/service/security_logger.go
package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurkanbulca/teamtask/internal/middleware"
	"github.com/gurkanbulca/teamtask/internal/models"
	"github.com/gurkanbulca/teamtask/pkg/security"
)

// SecurityLogger provides convenience methods for logging security events
type SecurityLogger struct {
	logger *zap.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(logger *zap.Logger) *SecurityLogger {
	return &SecurityLogger{logger: nopIfNil(logger).Named("security")}
}

// LogFromContext logs a security event using context information
func (sl *SecurityLogger) LogFromContext(ctx context.Context, userID uuid.UUID, eventType, description, severity string) {
	clientInfo := middleware.GetClientInfoFromContext(ctx)

	level, err := security.LogLevel(severity)
	if err != nil || !security.IsValidEventType(eventType) {
		sl.logger.Warn("malformed security event",
			zap.String("event_type", eventType),
			zap.String("severity", severity),
		)
	}

	fields := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("severity", severity),
		zap.String("ip_address", clientInfo.IPAddress),
		zap.String("user_agent", clientInfo.UserAgent),
	}
	if userID != uuid.Nil {
		fields = append(fields, zap.String("user_id", userID.String()))
	}
	if clientInfo.CompanyID != "" {
		fields = append(fields, zap.String("company_id", clientInfo.CompanyID))
	}
	sl.logger.Log(level, description, fields...)
}

// LogSystemFromContext logs an event that no known user triggered.
func (sl *SecurityLogger) LogSystemFromContext(ctx context.Context, eventType, description, severity string) {
	sl.LogFromContext(ctx, uuid.Nil, eventType, description, severity)
}

// LogCurrentUserFromContext logs a security event for the current authenticated user
func (sl *SecurityLogger) LogCurrentUserFromContext(ctx context.Context, eventType, description, severity string) {
	req, ok := middleware.RequesterFromContext(ctx)
	if !ok {
		sl.LogSystemFromContext(ctx, eventType, description, severity)
		return
	}
	sl.LogFromContext(ctx, req.UserID, eventType, description, severity)
}

// Convenience methods for common security events

func (sl *SecurityLogger) LogLoginSuccess(ctx context.Context, user *models.User) {
	sl.LogFromContext(ctx, user.ID, security.EventTypeLoginSuccess,
		"User successfully logged in", security.SeverityLow)
}

func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, email, reason string) {
	sl.LogSystemFromContext(ctx, security.EventTypeLoginFailed,
		"Login failed for "+email+": "+reason, security.SeverityMedium)
}

func (sl *SecurityLogger) LogCompanyCreated(ctx context.Context, company *models.Company, admin *models.User) {
	sl.LogFromContext(ctx, admin.ID, security.EventTypeCompanyCreated,
		"Company registered: "+company.Name, security.SeverityLow)
}

func (sl *SecurityLogger) LogCompanyDeleted(ctx context.Context, companyID uuid.UUID) {
	sl.LogCurrentUserFromContext(ctx, security.EventTypeCompanyDeleted,
		"Company deleted: "+companyID.String(), security.SeverityHigh)
}

func (sl *SecurityLogger) LogUserCreated(ctx context.Context, user *models.User) {
	sl.LogCurrentUserFromContext(ctx, security.EventTypeUserCreated,
		"User created: "+user.Email+" ("+string(user.Role)+")", security.SeverityLow)
}

func (sl *SecurityLogger) LogUserDeleted(ctx context.Context, userID uuid.UUID) {
	sl.LogCurrentUserFromContext(ctx, security.EventTypeUserDeleted,
		"User deleted: "+userID.String(), security.SeverityMedium)
}

func (sl *SecurityLogger) LogAccessDenied(ctx context.Context, description string) {
	sl.LogCurrentUserFromContext(ctx, security.EventTypeAccessDenied,
		description, security.SeverityMedium)
}
