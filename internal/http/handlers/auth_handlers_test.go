package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/imagebox/imagebox/internal/service"
	"github.com/imagebox/imagebox/pkg/auth"
)

// stubAuthService lets each test wire just the calls it expects.
type stubAuthService struct {
	registerFn       func(ctx context.Context, req *domain.RegisterRequest) error
	verifyOtpFn      func(ctx context.Context, email, code string, purpose domain.Purpose) (*service.VerifyOtpResult, error)
	resendOtpFn      func(ctx context.Context, email string) error
	forgotPasswordFn func(ctx context.Context, email string) error
	resetPasswordFn  func(ctx context.Context, email, newPassword string) error
	loginFn          func(ctx context.Context, req *domain.LoginRequest) (*domain.UserInfo, error)
	getUserFn        func(ctx context.Context, id int64) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, req *domain.RegisterRequest) error {
	return s.registerFn(ctx, req)
}

func (s *stubAuthService) VerifyOtp(ctx context.Context, email, code string, purpose domain.Purpose) (*service.VerifyOtpResult, error) {
	return s.verifyOtpFn(ctx, email, code, purpose)
}

func (s *stubAuthService) ResendOtp(ctx context.Context, email string) error {
	return s.resendOtpFn(ctx, email)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotPasswordFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	return s.resetPasswordFn(ctx, email, newPassword)
}

func (s *stubAuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.UserInfo, error) {
	return s.loginFn(ctx, req)
}

func (s *stubAuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUserFn(ctx, id)
}

func testHandlers(authSvc service.AuthService) *Handlers {
	issuer := auth.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return New(authSvc, nil, issuer)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func TestRegisterAccepted(t *testing.T) {
	var got *domain.RegisterRequest
	h := testHandlers(&stubAuthService{
		registerFn: func(_ context.Context, req *domain.RegisterRequest) error {
			got = req
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"u@x.com","password":"Passw0rd!","phone":"1234567890"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if !resp.Success || resp.Message != "OTP sent to email" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if got == nil || got.Email != "u@x.com" {
		t.Fatalf("service did not receive the request: %+v", got)
	}
}

func TestRegisterMalformedBody(t *testing.T) {
	h := testHandlers(&stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Success || resp.Error == "" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestRegisterConflict(t *testing.T) {
	h := testHandlers(&stubAuthService{
		registerFn: func(context.Context, *domain.RegisterRequest) error {
			return domain.ErrEmailExists
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"u@x.com","password":"Passw0rd!","phone":"1234567890"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestVerifyOtpRegisterIssuesTokens(t *testing.T) {
	user := &domain.UserInfo{ID: 1, Email: "u@x.com", Phone: "1234567890"}
	h := testHandlers(&stubAuthService{
		verifyOtpFn: func(_ context.Context, email, code string, purpose domain.Purpose) (*service.VerifyOtpResult, error) {
			if email != "u@x.com" || code != "123456" || purpose != domain.PurposeRegister {
				t.Fatalf("unexpected args: %s %s %s", email, code, purpose)
			}
			return &service.VerifyOtpResult{Purpose: domain.PurposeRegister, User: user}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/otp/verify",
		strings.NewReader(`{"email":"u@x.com","otp":"123456","purpose":"register"}`))
	rec := httptest.NewRecorder()
	h.VerifyOtp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", resp.Data)
	}
	if data["accessToken"] == "" {
		t.Fatal("expected an access token in the response")
	}

	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatal("expected a refresh cookie")
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteNoneMode || cookie.Path != "/" {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
	if _, err := h.issuer.VerifyRefreshToken(cookie.Value); err != nil {
		t.Fatalf("cookie does not hold a valid refresh token: %v", err)
	}
}

func TestVerifyOtpResetPassword(t *testing.T) {
	h := testHandlers(&stubAuthService{
		verifyOtpFn: func(context.Context, string, string, domain.Purpose) (*service.VerifyOtpResult, error) {
			return &service.VerifyOtpResult{Purpose: domain.PurposeResetPassword}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/otp/verify",
		strings.NewReader(`{"email":"u@x.com","otp":"123456","purpose":"reset-password"}`))
	rec := httptest.NewRecorder()
	h.VerifyOtp(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cookie := refreshCookie(rec); cookie != nil {
		t.Fatal("reset-password verification must not set a cookie")
	}
}

func TestVerifyOtpInvalidCode(t *testing.T) {
	h := testHandlers(&stubAuthService{
		verifyOtpFn: func(context.Context, string, string, domain.Purpose) (*service.VerifyOtpResult, error) {
			return nil, domain.ErrInvalidOtp
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/otp/verify",
		strings.NewReader(`{"email":"u@x.com","otp":"000000","purpose":"register"}`))
	rec := httptest.NewRecorder()
	h.VerifyOtp(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginSetsRefreshCookie(t *testing.T) {
	h := testHandlers(&stubAuthService{
		loginFn: func(context.Context, *domain.LoginRequest) (*domain.UserInfo, error) {
			return &domain.UserInfo{ID: 7, Email: "u@x.com"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"u@x.com","password":"Passw0rd!"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if refreshCookie(rec) == nil {
		t.Fatal("expected a refresh cookie")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	for _, svcErr := range []error{domain.ErrInvalidCredentials, domain.ErrIncorrectPassword} {
		h := testHandlers(&stubAuthService{
			loginFn: func(context.Context, *domain.LoginRequest) (*domain.UserInfo, error) {
				return nil, svcErr
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"u@x.com","password":"wrong"}`))
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%v: expected 401, got %d", svcErr, rec.Code)
		}
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	h := testHandlers(&stubAuthService{
		forgotPasswordFn: func(context.Context, string) error {
			return domain.ErrUserNotFound
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/password/forgot",
		strings.NewReader(`{"email":"nobody@x.com"}`))
	rec := httptest.NewRecorder()
	h.ForgotPassword(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestResetPasswordWithoutVerification(t *testing.T) {
	h := testHandlers(&stubAuthService{
		resetPasswordFn: func(context.Context, string, string) error {
			return domain.ErrOtpExpiredOrInvalid
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/password/reset",
		strings.NewReader(`{"email":"u@x.com","newPassword":"NewPassw0rd!"}`))
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := testHandlers(&stubAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookie := refreshCookie(rec)
	if cookie == nil {
		t.Fatal("expected the cookie to be rewritten")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cookie)
	}
}

func TestRefreshTokenFromCookie(t *testing.T) {
	user := &domain.User{ID: 7, Email: "u@x.com"}
	h := testHandlers(&stubAuthService{
		getUserFn: func(_ context.Context, id int64) (*domain.User, error) {
			if id != 7 {
				t.Fatalf("expected lookup of user 7, got %d", id)
			}
			return user, nil
		},
	})

	refresh, err := h.issuer.RefreshToken(7, "u@x.com")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: refresh})
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	data, ok := resp.Data.(map[string]any)
	if !ok || data["accessToken"] == "" {
		t.Fatalf("expected an access token, got %+v", resp.Data)
	}

	token, _ := data["accessToken"].(string)
	claims, err := h.issuer.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("minted access token does not verify: %v", err)
	}
	if claims.Sub != 7 {
		t.Fatalf("expected sub 7, got %d", claims.Sub)
	}
}

func TestRefreshTokenMissingCookie(t *testing.T) {
	h := testHandlers(&stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	h := testHandlers(&stubAuthService{})

	access, err := h.issuer.AccessToken(7, "u@x.com")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: access})
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
