package domain

import (
	"errors"
	"net/http"
)

// AppError is a domain error carrying the HTTP status the API layer should
// answer with. All handlers funnel errors through a single translation layer
// that maps an AppError to the {sucesso:false, mensagem, detalhes?} envelope.
type AppError struct {
	Status  int
	Message string
	Details interface{}
}

func (e *AppError) Error() string {
	return e.Message
}

// AsAppError unwraps err into an *AppError if there is one in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ErrValidation — malformed input (bad id format, missing required field).
func ErrValidation(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message}
}

// ErrNotFound — referenced entity absent or not owned by the caller.
func ErrNotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

// ErrForbidden — authenticated but lacking the required role.
func ErrForbidden(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: message}
}

// ErrSlotUnavailable — activation requested beyond capacity. Details carries
// the plan-vs-token breakdown for the UI.
func ErrSlotUnavailable(message string, details interface{}) *AppError {
	return &AppError{Status: http.StatusUnprocessableEntity, Message: message, Details: details}
}

// ErrDuplicateAssignment — the student already consumes a slot.
func ErrDuplicateAssignment(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Message: message}
}

// ErrInvalidStateTransition — illegal renewal request status change.
func ErrInvalidStateTransition(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Message: message}
}

// ErrStorageUnavailable — connection/timeout failure talking to the store.
func ErrStorageUnavailable() *AppError {
	return &AppError{Status: http.StatusServiceUnavailable, Message: "Serviço temporariamente indisponível, tente novamente em instantes"}
}

// ErrInternal — unexpected failure.
func ErrInternal(message string) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: message}
}
