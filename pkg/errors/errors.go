package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"

	// Payment reconciliation
	CodeInvalidProof     = "INVALID_PROOF"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeAmountMismatch   = "AMOUNT_MISMATCH"
	CodeGateway          = "GATEWAY_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeTimeout          = "TIMEOUT"
)

// classification says how a code surfaces on each transport and whether the caller may retry
type classification struct {
	http      int
	grpc      codes.Code
	retryable bool
}

var classes = map[string]classification{
	CodeValidation:       {http.StatusBadRequest, codes.InvalidArgument, false},
	CodeInvalidProof:     {http.StatusBadRequest, codes.InvalidArgument, false},
	CodeNotFound:         {http.StatusNotFound, codes.NotFound, false},
	CodeConflict:         {http.StatusConflict, codes.AlreadyExists, false},
	CodeUnauthorized:     {http.StatusUnauthorized, codes.Unauthenticated, false},
	CodeInvalidSignature: {http.StatusUnauthorized, codes.Unauthenticated, false},
	CodeForbidden:        {http.StatusForbidden, codes.PermissionDenied, false},
	CodeTooLarge:         {http.StatusRequestEntityTooLarge, codes.ResourceExhausted, false},
	CodeAmountMismatch:   {http.StatusUnprocessableEntity, codes.FailedPrecondition, false},
	CodeGateway:          {http.StatusBadGateway, codes.Unavailable, true},
	CodeStoreUnavailable: {http.StatusServiceUnavailable, codes.Unavailable, true},
	CodeTimeout:          {http.StatusGatewayTimeout, codes.DeadlineExceeded, true},
	CodeInternal:         {http.StatusInternalServerError, codes.Internal, true},
}

// grpcCodes maps inbound gRPC codes back to application codes
var grpcCodes = map[codes.Code]string{
	codes.InvalidArgument:    CodeValidation,
	codes.NotFound:           CodeNotFound,
	codes.AlreadyExists:      CodeConflict,
	codes.Unauthenticated:    CodeUnauthorized,
	codes.PermissionDenied:   CodeForbidden,
	codes.ResourceExhausted:  CodeTooLarge,
	codes.FailedPrecondition: CodeAmountMismatch,
	codes.Unavailable:        CodeStoreUnavailable,
	codes.DeadlineExceeded:   CodeTimeout,
}

// AppError represents an application error
type AppError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON response structure for errors
type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	TraceID string    `json:"trace_id,omitempty"`
}

// ErrorBody contains error details
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// classify returns the AppError inside err, or a generic internal error
func classify(err error) (*AppError, classification) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = &AppError{Code: CodeInternal, Message: "An internal error occurred"}
	}
	c, ok := classes[appErr.Code]
	if !ok {
		c = classes[CodeInternal]
	}
	return appErr, c
}

// ToJSON converts an error to the standard JSON response
func ToJSON(err error, traceID string) (int, []byte) {
	appErr, c := classify(err)

	data, _ := json.Marshal(ErrorResponse{
		Error: ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
		TraceID: traceID,
	})
	return c.http, data
}

// HTTPStatus returns the HTTP status code for an error
func HTTPStatus(err error) int {
	_, c := classify(err)
	return c.http
}

// GRPCStatus converts an error to a gRPC status
func GRPCStatus(err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, "internal error")
	}
	_, c := classify(appErr)
	return status.Error(c.grpc, appErr.Message)
}

// FromGRPCStatus converts a gRPC status to an AppError
func FromGRPCStatus(err error) *AppError {
	st, ok := status.FromError(err)
	if !ok {
		return NewInternal("unknown error", err)
	}

	code, ok := grpcCodes[st.Code()]
	if !ok {
		code = CodeInternal
	}
	return &AppError{Code: code, Message: st.Message(), Err: err}
}

// Retryable reports whether the caller may safely retry the operation that produced err.
// Errors outside the taxonomy are treated as transient.
func Retryable(err error) bool {
	_, c := classify(err)
	return c.retryable
}

// Is checks if an error matches a specific code
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Constructor functions

// NewValidation creates a validation error
func NewValidation(message string, details interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Details: details}
}

// NewNotFound creates a not found error
func NewNotFound(resource string, id interface{}) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s with id '%v' not found", resource, id)}
}

// NewConflict creates a conflict error
func NewConflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// NewUnauthorized creates an unauthorized error
func NewUnauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// NewForbidden creates a forbidden error
func NewForbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewPayloadTooLarge creates an error for a request body over the accepted size
func NewPayloadTooLarge(message string) *AppError {
	return &AppError{Code: CodeTooLarge, Message: message}
}

// NewInvalidProof creates an error for a client payment proof that failed verification
func NewInvalidProof(message string) *AppError {
	return &AppError{Code: CodeInvalidProof, Message: message}
}

// NewInvalidSignature creates an error for a webhook whose signature did not verify
func NewInvalidSignature(message string) *AppError {
	return &AppError{Code: CodeInvalidSignature, Message: message}
}

// NewAmountMismatch creates an error for a capture whose amount differs from the order total
func NewAmountMismatch(expected, captured int64) *AppError {
	return &AppError{
		Code:    CodeAmountMismatch,
		Message: fmt.Sprintf("captured amount %d does not match order total %d", captured, expected),
		Details: map[string]interface{}{
			"expected": expected,
			"captured": captured,
		},
	}
}

// NewGateway creates an error for a failed call to the payment gateway
func NewGateway(message string, err error) *AppError {
	return &AppError{Code: CodeGateway, Message: message, Err: err}
}

// NewStoreUnavailable creates a retryable storage error
func NewStoreUnavailable(message string, err error) *AppError {
	return &AppError{Code: CodeStoreUnavailable, Message: message, Err: err}
}

// NewTimeout creates a retryable timeout error
func NewTimeout(message string, err error) *AppError {
	return &AppError{Code: CodeTimeout, Message: message, Err: err}
}
