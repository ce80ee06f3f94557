package handlers

import (
	"go.uber.org/zap"

	"github.com/gradecoach/gradecoach/internal/observability"
)

// Nil-guarded logging helpers: handlers run in tests without an initialized
// server logger.

func logInfo(msg string, fields ...zap.Field) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info(msg, fields...)
	}
}

func logWarn(msg string, fields ...zap.Field) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Warn(msg, fields...)
	}
}

func logError(msg string, fields ...zap.Field) {
	if observability.ServerLogger != nil {
		observability.ServerLogger.Error(msg, fields...)
	}
}
