package domain

import "time"

// Purpose tags what a pending OTP record authorizes once verified.
type Purpose string

const (
	PurposeRegister      Purpose = "register"
	PurposeResetPassword Purpose = "reset-password"
)

func (p Purpose) Valid() bool {
	return p == PurposeRegister || p == PurposeResetPassword
}

const (
	// OtpLength is the number of digits in a generated code.
	OtpLength = 6

	// VerifiedSentinel replaces the code of a reset-password record once the
	// code has been verified; the record then authorizes one password reset
	// until it expires.
	VerifiedSentinel = "VERIFIED"

	// OtpTTL is the hard expiry window of a pending record, measured from
	// its last store. Records older than this are treated as absent.
	OtpTTL = 5 * time.Minute
)

// StagedUser is the registration payload held inside an OTP record until
// verification promotes it into a real identity. PasswordHash is already
// hashed and must be stored as-is.
type StagedUser struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Phone        string `json:"phone"`
}

// OtpRecord is a pending verification keyed by email; at most one exists per
// email at any time. Staged is populated only for the register purpose.
type OtpRecord struct {
	Email     string      `json:"email"`
	Code      string      `json:"code"`
	Purpose   Purpose     `json:"purpose"`
	Staged    *StagedUser `json:"staged,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewRegisterOtp(email, code string, staged StagedUser) *OtpRecord {
	return &OtpRecord{
		Email:   email,
		Code:    code,
		Purpose: PurposeRegister,
		Staged:  &staged,
	}
}

func NewResetPasswordOtp(email, code string) *OtpRecord {
	return &OtpRecord{
		Email:   email,
		Code:    code,
		Purpose: PurposeResetPassword,
	}
}

// HasCompleteStagedData reports whether the record carries everything needed
// to promote the staged registration into an identity.
func (r *OtpRecord) HasCompleteStagedData() bool {
	return r.Staged != nil &&
		r.Staged.Email != "" &&
		r.Staged.PasswordHash != "" &&
		r.Staged.Phone != ""
}
