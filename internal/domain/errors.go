package domain

import "errors"

// Request-scoped failures surfaced to the transport layer. Nothing here is
// fatal to the process and nothing is retried automatically.
var (
	ErrEmailExists         = errors.New("this email already exists")
	ErrInvalidOtp          = errors.New("invalid OTP")
	ErrOtpNotFound         = errors.New("no pending OTP found")
	ErrUserNotFound        = errors.New("user not found")
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrIncorrectPassword   = errors.New("incorrect password")
	ErrOtpExpiredOrInvalid = errors.New("OTP not verified or expired")
	ErrOtpSendFailed       = errors.New("OTP sending failed")
	ErrBadRequest          = errors.New("invalid request")
	ErrInternal            = errors.New("internal error")
)

// ValidationError carries the specific message for a malformed input so the
// user knows which check failed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(msg string) error { return &ValidationError{Message: msg} }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
