package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/imagebox/imagebox/internal/mailer"
	"github.com/imagebox/imagebox/internal/otp"
	"github.com/imagebox/imagebox/internal/repo"
	"github.com/imagebox/imagebox/pkg/events"
	"github.com/imagebox/imagebox/pkg/logger"
)

// AuthService is the state machine tying together the credential store, the
// OTP store, and the notifier: registration staging, verification, login,
// resend, forgot/reset password.
type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) error
	VerifyOtp(ctx context.Context, email, code string, purpose domain.Purpose) (*VerifyOtpResult, error)
	ResendOtp(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, newPassword string) error
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.UserInfo, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// VerifyOtpResult reports what a successful verification authorized. User is
// set only for the register purpose; the caller is responsible for minting
// tokens.
type VerifyOtpResult struct {
	Purpose domain.Purpose
	User    *domain.UserInfo
}

type authService struct {
	users    repo.UsersRepo
	otps     repo.OtpRepo
	mailer   mailer.Service
	generate otp.Generator
	eventBus events.Publisher
}

func NewAuthService(
	users repo.UsersRepo,
	otps repo.OtpRepo,
	mailer mailer.Service,
	generate otp.Generator,
	eventBus events.Publisher,
) AuthService {
	return &authService{
		users:    users,
		otps:     otps,
		mailer:   mailer,
		generate: generate,
		eventBus: eventBus,
	}
}

// Register stages a registration: no identity is created until the emailed
// code is verified. OTP delivery failure fails the request, since email is
// the only channel the user can obtain the code through.
func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return domain.ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	code := s.generate()
	record := domain.NewRegisterOtp(req.Email, code, domain.StagedUser{
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
	})

	if err := s.otps.Store(ctx, record); err != nil {
		return fmt.Errorf("failed to store OTP record: %w", err)
	}

	return s.sendOtp(ctx, req.Email, code)
}

// VerifyOtp matches email, code and purpose simultaneously; a miss reveals
// nothing about which factor failed.
func (s *authService) VerifyOtp(ctx context.Context, email, code string, purpose domain.Purpose) (*VerifyOtpResult, error) {
	if !purpose.Valid() {
		return nil, domain.ErrBadRequest
	}

	record, err := s.otps.Get(ctx, email, code, purpose)
	if err != nil {
		return nil, fmt.Errorf("failed to look up OTP record: %w", err)
	}
	if record == nil {
		return nil, domain.ErrInvalidOtp
	}

	switch purpose {
	case domain.PurposeRegister:
		if !record.HasCompleteStagedData() {
			logger.ErrorContext(ctx, "OTP record has incomplete staged data", "email", email)
			return nil, domain.ErrInternal
		}

		user, err := s.users.Create(ctx, record.Staged.Email, record.Staged.PasswordHash, record.Staged.Phone)
		if err != nil {
			// a concurrent verify may have won the create; the unique index
			// on email is the race-safety mechanism
			return nil, err
		}

		if err := s.otps.Delete(ctx, email); err != nil {
			logger.WarnContext(ctx, "Failed to delete consumed OTP record", "error", err, "email", email)
		}

		s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
			UserID:       user.ID,
			Email:        user.Email,
			RegisteredAt: time.Now(),
		})

		return &VerifyOtpResult{Purpose: purpose, User: user.ToUserInfo()}, nil

	case domain.PurposeResetPassword:
		// Mark the record verified; the sentinel authorizes one password
		// reset until the record expires.
		record.Code = domain.VerifiedSentinel
		if err := s.otps.Store(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to mark OTP record verified: %w", err)
		}
		return &VerifyOtpResult{Purpose: purpose}, nil
	}

	return nil, domain.ErrBadRequest
}

// ResendOtp replaces the pending code, preserving purpose and staged data.
// The expiry clock resets, so a user can extend a stale attempt by resending.
func (s *authService) ResendOtp(ctx context.Context, email string) error {
	record, err := s.otps.Get(ctx, email, "", "")
	if err != nil {
		return fmt.Errorf("failed to look up OTP record: %w", err)
	}
	if record == nil {
		return domain.ErrOtpNotFound
	}

	record.Code = s.generate()
	if err := s.otps.Store(ctx, record); err != nil {
		return fmt.Errorf("failed to store OTP record: %w", err)
	}

	return s.sendOtp(ctx, email, record.Code)
}

// ForgotPassword requires an existing identity; the existence check leaks
// whether an email is registered, a documented tradeoff.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	code := s.generate()
	if err := s.otps.Store(ctx, domain.NewResetPasswordOtp(email, code)); err != nil {
		return fmt.Errorf("failed to store OTP record: %w", err)
	}

	return s.sendOtp(ctx, email, code)
}

func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	record, err := s.otps.Get(ctx, email, "", "")
	if err != nil {
		return fmt.Errorf("failed to look up OTP record: %w", err)
	}
	if record == nil || record.Purpose != domain.PurposeResetPassword || record.Code != domain.VerifiedSentinel {
		return domain.ErrOtpExpiredOrInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	updated, err := s.users.UpdatePasswordByEmail(ctx, email, string(hash))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if !updated {
		return domain.ErrUserNotFound
	}

	if err := s.otps.Delete(ctx, email); err != nil {
		logger.WarnContext(ctx, "Failed to delete consumed OTP record", "error", err, "email", email)
	}

	s.publish(ctx, events.UserPasswordReset, events.UserPasswordResetEvent{
		Email:   email,
		ResetAt: time.Now(),
	})

	return nil
}

// Login hides account existence behind a generic credentials error; a wrong
// password gets its own kind, collapsed at the transport boundary.
func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.UserInfo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrIncorrectPassword
	}

	return user.ToUserInfo(), nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *authService) sendOtp(ctx context.Context, email, code string) error {
	if err := s.mailer.SendOtp(ctx, email, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send OTP email", "error", err, "email", email)
		return domain.ErrOtpSendFailed
	}
	return nil
}

func (s *authService) publish(ctx context.Context, subject string, event any) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
