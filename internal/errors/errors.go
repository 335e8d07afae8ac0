package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Error types
const (
	ErrTypeConfig            = "config"
	ErrTypeConfigParse       = "config_parse"
	ErrTypeNoMatchingWebhook = "no_matching_webhook"
	ErrTypeDispatch          = "dispatch_failure"
	ErrTypeInvalidPayload    = "invalid_payload"
	ErrTypeInternal          = "internal"
)

// NotFoundText is the only failure body a caller ever sees.
const NotFoundText = "Not found"

// AppError is an application error. Its Type drives logging and metrics;
// it never changes what the caller receives.
type AppError struct {
	Type      string   `json:"type"`
	Message   string   `json:"message"`
	Cause     error    `json:"-"`
	Stack     []string `json:"-"`
	RequestID string   `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) String() string {
	return e.Error()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithStack records the caller's stack, skipping runtime frames.
func (e *AppError) WithStack() *AppError {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			stack = append(stack, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	e.Stack = stack
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func New(errType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrap turns err into an AppError. An existing AppError keeps its type and
// cause; only the message is replaced.
func Wrap(err error, errType, message string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Type:    appErr.Type,
			Message: message,
			Cause:   appErr.Cause,
			Stack:   appErr.Stack,
		}
	}

	return New(errType, message, err)
}

func Is(err error, errType string) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}

	return false
}

func GetType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return "unknown"
}

func RootCause(err error) error {
	for err != nil {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
	return err
}

func Config(message string, cause error) *AppError {
	return New(ErrTypeConfig, message, cause).WithStack()
}

func Internal(message string, cause error) *AppError {
	return New(ErrTypeInternal, message, cause).WithStack()
}

// Err writes the generic failure response. Every error kind collapses to
// 404 "Not found"; the detail only reaches the log.
func Err(c *gin.Context, err error) {
	requestID := c.GetString("RequestID")

	appErr, ok := AsAppError(err)
	if !ok {
		appErr = New("unknown", err.Error(), nil)
	}
	if requestID != "" {
		appErr.RequestID = requestID
	}

	log.Debug().
		Str("type", appErr.Type).
		Str("request_id", appErr.RequestID).
		Err(err).
		Msg("request rejected")

	c.String(http.StatusNotFound, NotFoundText)
}
