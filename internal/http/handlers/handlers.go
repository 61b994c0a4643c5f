package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/imagebox/imagebox/internal/service"
	"github.com/imagebox/imagebox/pkg/auth"
	"github.com/imagebox/imagebox/pkg/logger"
)

const refreshCookieName = "refreshToken"

type Handlers struct {
	authService  service.AuthService
	imageService service.ImageService
	issuer       *auth.Issuer
}

func New(
	authService service.AuthService,
	imageService service.ImageService,
	issuer *auth.Issuer,
) *Handlers {
	return &Handlers{
		authService:  authService,
		imageService: imageService,
		issuer:       issuer,
	}
}

// apiResponse is the JSON envelope every endpoint answers with.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Message: message, Data: data}); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg}); encErr != nil {
		logger.Error("failed to encode error response", "error", encErr)
	}
}

// statusFor maps the error taxonomy to HTTP statuses. Unknown errors become
// an opaque 500 so internals never leak to the client.
func statusFor(err error) (int, string) {
	switch {
	case domain.IsValidation(err), errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidOtp),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrIncorrectPassword),
		errors.Is(err, domain.ErrOtpExpiredOrInvalid),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrOtpNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrOtpSendFailed):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.issuer.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
