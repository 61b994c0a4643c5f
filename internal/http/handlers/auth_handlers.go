package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/imagebox/imagebox/internal/http/middleware"
	"github.com/imagebox/imagebox/pkg/auth"
	"github.com/imagebox/imagebox/pkg/logger"
)

// Register stages a registration and sends the OTP; no identity exists until
// verification.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrBadRequest)
		return
	}

	if err := h.authService.Register(r.Context(), &req); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, "OTP sent to email", nil)
}

func (h *Handlers) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrBadRequest)
		return
	}

	result, err := h.authService.VerifyOtp(r.Context(), req.Email, req.Otp, domain.Purpose(req.Purpose))
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Purpose == domain.PurposeRegister {
		h.issueTokens(w, r, http.StatusCreated, "Registered successfully", result.User)
		return
	}

	writeJSON(w, http.StatusOK, "OTP verified successfully", map[string]any{
		"purpose": result.Purpose,
	})
}

func (h *Handlers) ResendOtp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, domain.ErrBadRequest)
		return
	}

	if err := h.authService.ResendOtp(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "OTP resent successfully", nil)
}

func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, domain.ErrBadRequest)
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "OTP sent to email", nil)
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrBadRequest)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "Password updated successfully", nil)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrBadRequest)
		return
	}

	user, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.issueTokens(w, r, http.StatusOK, "Logged in successfully", user)
}

// Logout clears the client-held refresh cookie. The refresh token itself
// stays valid for its full lifetime; there is no server-side revocation.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, "Logged out successfully", nil)
}

// RefreshToken mints a new access token from the refresh cookie.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, auth.ErrInvalidToken)
		return
	}

	claims, err := h.issuer.VerifyRefreshToken(cookie.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authService.GetUser(r.Context(), claims.Sub)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, auth.ErrInvalidToken)
		return
	}

	accessToken, err := h.issuer.AccessToken(user.ID, user.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "", map[string]any{
		"accessToken": accessToken,
	})
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		writeError(w, auth.ErrInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, "", user.ToUserInfo())
}

func (h *Handlers) issueTokens(w http.ResponseWriter, r *http.Request, status int, message string, user *domain.UserInfo) {
	accessToken, err := h.issuer.AccessToken(user.ID, user.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to mint access token", "error", err)
		writeError(w, domain.ErrInternal)
		return
	}

	refreshToken, err := h.issuer.RefreshToken(user.ID, user.Email)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to mint refresh token", "error", err)
		writeError(w, domain.ErrInternal)
		return
	}

	h.setRefreshCookie(w, refreshToken)
	writeJSON(w, status, message, map[string]any{
		"accessToken": accessToken,
		"user":        user,
	})
}
