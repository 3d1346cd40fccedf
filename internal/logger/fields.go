package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldAttempt is the 1-based position of a model or strategy in its cascade.
	FieldAttempt = "attempt"
	// FieldStrategy names the extraction strategy being attempted.
	FieldStrategy = "strategy"

	FieldAuditID       = "audit_id"
	FieldUserID        = "user_id"
	FieldApplicationID = "application_id"
	FieldJobPursuitID  = "job_pursuit_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger, defaulting to
// a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	logger = OrNop(logger)

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
// Empty values are ignored to keep log entries compact when information is missing.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common AI fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// AuditFields describes one audit invocation and its opaque linking identifiers.
func AuditFields(auditID, userID, applicationID, jobPursuitID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldAuditID, Value: auditID},
		StringField{Key: FieldUserID, Value: userID},
		StringField{Key: FieldApplicationID, Value: applicationID},
		StringField{Key: FieldJobPursuitID, Value: jobPursuitID},
	)
}
