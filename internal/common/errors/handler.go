// internal/common/errors/handler.go
package errors

import (
	"fmt"
	"runtime/debug"
	"time"
)

// ErrorHandler funnels unexpected pipeline failures into one normalized,
// logged StandardError. The orchestrator owns a single instance and runs
// every catch-once path through it.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleStageError normalizes err, writes the observability record, and
// returns the StandardError the envelope builder acts on.
func (h *ErrorHandler) HandleStageError(stage string, err error) *StandardError {
	stdErr := Normalize(stage, err)
	h.logError(stage, stdErr)
	return stdErr
}

// HandlePanic converts a recovered panic value into a StandardError and
// logs it with the goroutine stack. Raw panic detail never leaves the
// log record.
func (h *ErrorHandler) HandlePanic(stage string, recovered interface{}) *StandardError {
	stdErr := FromPanic(stage, recovered)
	h.logger.Error("pipeline stage panicked", map[string]interface{}{
		"stage": stage,
		"panic": fmt.Sprintf("%v", recovered),
		"stack": string(debug.Stack()),
	})
	return stdErr
}

// Normalize ensures we always have a StandardError.
func Normalize(stage string, err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return NewUnexpectedInternalError(stage, err)
}

// FromPanic wraps a recovered panic value.
func FromPanic(stage string, recovered interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpectedInternal,
		Message:   "Pipeline stage panicked",
		Details:   fmt.Sprintf("stage: %s, panic: %v", stage, recovered),
		Retryable: false,
		Metadata:  map[string]interface{}{"stage": stage},
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(stage string, stdErr *StandardError) {
	fields := stdErr.LogFields()
	fields["stage"] = stage
	h.logger.Error("pipeline stage failed", fields)
}
