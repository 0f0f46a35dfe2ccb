package middleware

import (
	"net/http"

	"github.com/tripmap/tripmap/internal/auth"
)

// Session injects the current authentication state into each request's
// context. Anonymous viewers pass through with no session value; the
// handlers treat that as read-only access.
func Session(sess *auth.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if current := sess.Current(); current != nil {
				r = r.WithContext(auth.ContextWithSession(r.Context(), current))
			}
			next.ServeHTTP(w, r)
		})
	}
}
