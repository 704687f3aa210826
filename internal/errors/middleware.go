package errors

import (
	"net/http"
)

// RecoveryMiddleware turns a panic into a 500 problem response.
// http.ErrAbortHandler is re-raised so net/http aborts the connection.
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				switch rec := recover(); rec {
				case nil:
				case http.ErrAbortHandler:
					panic(rec)
				default:
					handler.HandlePanic(w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
