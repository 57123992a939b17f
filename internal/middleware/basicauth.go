package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuth guards a handler with HTTP basic auth against one fixed
// credential pair. When the configured user is empty the realm is disabled
// and every request is rejected.
func BasicAuth(realm, user, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqUser, reqPass, ok := r.BasicAuth()
			if !ok || user == "" || !equal(reqUser, user) || !equal(reqPass, password) {
				w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
