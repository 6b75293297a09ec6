package middleware

import (
	"context"
	"net/http"
	"strings"

	"fintech_index/internal/common"
	"fintech_index/internal/common/security"
	"fintech_index/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey    contextKey = "userID"
	UserRoleCtxKey  contextKey = "userRole"
	UserEmailCtxKey contextKey = "userEmail"
)

func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}

		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		userRole, err := security.GetUserRoleFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		userEmail, err := security.GetUserEmailFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
		ctx = context.WithValue(ctx, UserRoleCtxKey, userRole)
		ctx = context.WithValue(ctx, UserEmailCtxKey, userEmail)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAnyRole gates a route to an explicit role list. Checks are
// exact-match over the closed role set; there is no hierarchy, so a route
// meant for admins and editors must list both.
func RequireAnyRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := r.Context().Value(UserRoleCtxKey).(string)
			if !ok || !allowed[model.Role(raw)] {
				common.RespondWithError(w, http.StatusForbidden, "Forbidden: insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route to a single role.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return RequireAnyRole(role)
}

// AdminOnly shorthand for the admin-gated route groups.
var AdminOnly = RequireRole(model.RoleAdmin)

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}

func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	userEmail, ok := ctx.Value(UserEmailCtxKey).(string)
	return userEmail, ok
}
