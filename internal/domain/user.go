package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserInfo is the public projection handed to the transport layer. It never
// carries the password hash.
type UserInfo struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:    u.ID,
		Email: u.Email,
		Phone: u.Phone,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyOtpRequest struct {
	Email   string `json:"email"`
	Otp     string `json:"otp"`
	Purpose string `json:"purpose"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var phoneRegex = regexp.MustCompile(`^\d{10}$`)

func (r *RegisterRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r *RegisterRequest) Validate() error {
	if r.Email == "" || r.Password == "" || r.Phone == "" {
		return Validation("all fields are required")
	}
	if !emailRegex.MatchString(r.Email) {
		return Validation("invalid email format")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if !phoneRegex.MatchString(r.Phone) {
		return Validation("phone number must be exactly 10 digits")
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return Validation("all fields are required")
	}
	if !emailRegex.MatchString(r.Email) {
		return Validation("invalid email format")
	}
	return nil
}

// ValidatePassword enforces the account password policy: at least 8
// characters with at least one letter, one digit, and one special character.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return Validation("password must be at least 8 characters long")
	}
	var hasLetter, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsLetter(c):
			hasLetter = true
		case unicode.IsDigit(c):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasLetter || !hasDigit || !hasSpecial {
		return Validation("password must contain at least 1 letter, 1 number, and 1 special character")
	}
	return nil
}
