package auth

import (
	"net/http"

	"github.com/noah-isme/shopfront/internal/common"
)

// RequireAdmin guards the admin surface. It resolves the session cookie and
// stores the admin id on the request context; anything else is a 401.
func RequireAdmin(svc *Service, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			admin, err := svc.Resolve(r.Context(), cookie.Value)
			if err != nil {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(common.WithAdminID(r.Context(), admin.ID.String())))
		})
	}
}
