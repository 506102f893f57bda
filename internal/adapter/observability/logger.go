// Package observability bridges pipeline logging onto the shared call
// logger's format settings, so review messages and API call logs share
// one output shape.
package observability

import (
	"context"
	"encoding/json"
	"log"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// ReviewLogger implements review.Logger.
type ReviewLogger struct {
	format llmhttp.LogFormat
	level  llmhttp.LogLevel
}

// NewReviewLogger creates a new review logger.
func NewReviewLogger(level llmhttp.LogLevel, format llmhttp.LogFormat) review.Logger {
	return &ReviewLogger{format: format, level: level}
}

// LogWarning logs a warning message with structured fields.
func (l *ReviewLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.emit("warning", message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *ReviewLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > llmhttp.LogLevelInfo {
		return
	}
	l.emit("info", message, fields)
}

func (l *ReviewLogger) emit(level, message string, fields map[string]interface{}) {
	if l.format == llmhttp.LogFormatJSON {
		entry := map[string]interface{}{"level": level, "message": message}
		for k, v := range fields {
			entry[k] = v
		}
		if data, err := json.Marshal(entry); err == nil {
			log.Printf("%s", data)
			return
		}
	}
	log.Printf("[%s] %s %v", level, message, fields)
}
