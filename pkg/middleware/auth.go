package middleware

import (
	"net/http"

	"wedding-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminToken admits requests whose X-Admin-Token matches the bcrypt hash.
// With an empty hash every request is refused.
func AdminToken(tokenHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	hash := []byte(tokenHash)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(hash) == 0 {
				logger.Warn("Admin endpoint called but no admin token is configured",
					zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Admin access is not configured")
				return
			}

			token := r.Header.Get(AdminTokenHeader)
			if token == "" {
				utils.ResponseUnauthorized(w, "Missing admin token")
				return
			}

			if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
				logger.Warn("Invalid admin token",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr))
				utils.ResponseUnauthorized(w, "Invalid admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
