package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrTokenExpired      = errors.New("token expired")
	ErrNotConnected      = errors.New("blockchain service not connected")
	ErrInvalidRecord     = errors.New("invalid on-chain record")
	ErrConnectorNotFound = errors.New("connector not found")
	ErrUnsupportedWallet = errors.New("unsupported wallet type")
	ErrUnsupportedChain  = errors.New("unsupported chain")
	ErrNotListed         = errors.New("nft is not listed")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrTooManyPending    = errors.New("too many pending transactions")
)

// Error codes returned to API clients
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeConnectorNotFound = "CONNECTOR_NOT_FOUND"
	CodeWalletError       = "WALLET_ERROR"
	CodeNotConnected      = "NOT_CONNECTED"
	CodeTooManyPending    = "TOO_MANY_PENDING"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternalError, "internal server error", err)
}

// WalletError reports a failed wallet action (connect, switch, disconnect).
func WalletError(message string, err error) *AppError {
	code := CodeWalletError
	if errors.Is(err, ErrConnectorNotFound) {
		code = CodeConnectorNotFound
	}
	return NewAppError(http.StatusUnprocessableEntity, code, message, err)
}

// NewError creates a new error with a custom message wrapping an existing error
func NewError(message string, err error) error {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    CodeBadRequest,
		Message: message,
		Err:     err,
	}
}
