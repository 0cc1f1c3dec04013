package middleware

import (
	"net/http"
	"time"

	"stockroom/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request so every
// statement in the request shares one "now" in audit and domain timestamps.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
