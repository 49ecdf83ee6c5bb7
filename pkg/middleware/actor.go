package middleware

import (
	"net/http"

	"roomkeeper/pkg/actor"
	"roomkeeper/pkg/logger"
)

// RequireActor rejects requests that arrive without gateway identity headers.
func RequireActor(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := actor.FromRequest(r); err != nil {
				log.Warn("Request without actor identity",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				writeJSONError(w, http.StatusUnauthorized, "Missing actor identity", "UNAUTHORIZED")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
