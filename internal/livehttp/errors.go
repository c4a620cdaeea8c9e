package livehttp

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-desktop/internal/engine"
)

// EngineError is the JSON body of every error response.
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func (e EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

const (
	ErrTypeInvalidBet    = "invalid_bet"
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeUnauthorized  = "unauthorized"

	ErrTypeIllegalState = "illegal_state"
	ErrTypeNotFound     = "not_found"

	ErrTypeInternal = "internal_error"
)

// ErrorCategory groups error types for logging and the X-Error-Category header.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategorySystem     ErrorCategory = "system"
)

func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidBet, ErrTypeInvalidParams, ErrTypeUnauthorized:
		return CategoryValidation
	case ErrTypeIllegalState, ErrTypeNotFound:
		return CategoryGame
	default:
		return CategorySystem
	}
}

// ErrorBuilder helps construct structured errors with context.
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

func (eb *ErrorBuilder) Build() EngineError {
	e := EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if len(eb.context) > 0 {
		e.Context = eb.context
	}
	return e
}

// classify maps an engine error to its HTTP status and error body.
func classify(err error) (int, *ErrorBuilder) {
	var ee EngineError
	if errors.As(err, &ee) {
		b := NewError(ee.Type, ee.Message)
		for k, v := range ee.Context {
			b.WithContext(k, v)
		}
		return statusFor(ee.Type), b
	}

	var be *engine.BetError
	switch {
	case errors.As(err, &be):
		return http.StatusUnprocessableEntity, NewError(ErrTypeInvalidBet, err.Error()).
			WithContext("field", be.Field).
			WithContext("reason", be.Reason)
	case errors.Is(err, engine.ErrInvalidBet):
		return http.StatusUnprocessableEntity, NewError(ErrTypeInvalidBet, err.Error())
	case errors.Is(err, engine.ErrIllegalState):
		return http.StatusConflict, NewError(ErrTypeIllegalState, err.Error())
	default:
		return http.StatusInternalServerError, NewError(ErrTypeInternal, err.Error())
	}
}

func statusFor(errType string) int {
	switch errType {
	case ErrTypeInvalidBet:
		return http.StatusUnprocessableEntity
	case ErrTypeInvalidParams:
		return http.StatusBadRequest
	case ErrTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrTypeIllegalState:
		return http.StatusConflict
	case ErrTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as an EngineError.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, b := classify(err)
	e := b.WithRequestID(middleware.GetReqID(r.Context())).Build()
	category := GetErrorCategory(e.Type)

	fields := []zap.Field{
		zap.String("type", e.Type),
		zap.String("category", string(category)),
		zap.Int("status", status),
		zap.String("request_id", e.RequestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("message", e.Message),
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", fields...)
	} else {
		s.log.Debug("request rejected", fields...)
	}

	w.Header().Set("X-Error-Type", e.Type)
	w.Header().Set("X-Error-Category", string(category))
	writeJSON(w, status, e)
}

// recoverer turns a panic into a 500 EngineError.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				s.log.Error("panic recovered",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rvr),
					zap.Stack("stack"),
				)
				s.writeError(w, r, NewError(ErrTypeInternal, "internal server error").Build())
			}
		}()
		next.ServeHTTP(w, r)
	})
}
