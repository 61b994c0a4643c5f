package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/imagebox/imagebox/internal/http/middleware"
	"github.com/imagebox/imagebox/internal/repo"
)

// Routes builds the API router. The rate limiter guards the OTP-sending
// endpoints; protected routes require a bearer access token.
func (h *Handlers) Routes(users repo.UsersRepo, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/register", h.Register)
			r.Post("/otp/resend", h.ResendOtp)
			r.Post("/password/forgot", h.ForgotPassword)
		})

		r.Post("/login", h.Login)
		r.Post("/otp/verify", h.VerifyOtp)
		r.Post("/password/reset", h.ResetPassword)
		r.Post("/logout", h.Logout)
		r.Get("/refresh-token", h.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.issuer, users))
			r.Get("/me", h.Me)
		})
	})

	r.Route("/images", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.issuer, users))
		r.Post("/upload", h.UploadImages)
		r.Get("/", h.ListImages)
		r.Put("/reorder", h.ReorderImages)
		r.Put("/{id}", h.UpdateImage)
		r.Delete("/{id}", h.DeleteImage)
	})

	return r
}
