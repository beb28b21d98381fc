package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/loyalhood/loyalhood/internal/api/models"
)

// Recovery turns a handler panic into a 500 problem response carrying the
// request ID. http.ErrAbortHandler is re-raised so net/http can drop the
// connection.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				event := log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("stack", string(debug.Stack()))
				if err, ok := rec.(error); ok {
					event = event.Err(err)
				} else {
					event = event.Interface("panic", rec)
				}
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					event = event.Str("route", rctx.RoutePattern())
				}
				event.Msg("handler panicked")

				problem := models.NewInternalError(requestID, "an unexpected error occurred")
				problem.Instance = r.URL.Path
				problem.Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
