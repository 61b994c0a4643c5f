package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/imagebox/imagebox/internal/repo"
	"github.com/imagebox/imagebox/pkg/auth"
)

type ctxKey string

const ctxUser ctxKey = "user"

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}

// RequireAuth validates the bearer access token and resolves the identity by
// the token's subject id into the request context.
func RequireAuth(issuer *auth.Issuer, users repo.UsersRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				unauthorized(w, "invalid authorization header")
				return
			}

			claims, err := issuer.VerifyAccessToken(strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				unauthorized(w, "invalid authorization token")
				return
			}

			user, err := users.FindByID(r.Context(), claims.Sub)
			if err != nil || user == nil {
				unauthorized(w, "invalid authorization token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser returns the identity resolved by RequireAuth, or nil.
func CurrentUser(r *http.Request) *domain.User {
	v := r.Context().Value(ctxUser)
	if v == nil {
		return nil
	}
	return v.(*domain.User)
}
