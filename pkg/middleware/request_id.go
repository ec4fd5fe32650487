package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/wri/terramatch-workflow/pkg/requestid"
)

const RequestIDHeader = "X-Request-Id"

// RequestID stores the request id in the request context and echoes it in the response.
// The id comes from the X-Request-Id header, then chi's RequestID middleware, then a fresh uuid.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		if id == "" {
			id = requestid.Generate()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestid.ToContext(r.Context(), id)))
	})
}
