package authx

import (
	"net/http"

	"food-delivery-system/internal/logger"
)

// Middleware rejects requests without a valid bearer credential:
// 401 when the header carries no token, 403 when verification fails.
func Middleware(v *Verifier, lg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				lg.Warn("auth_rejected", map[string]any{"path": r.URL.Path})
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
