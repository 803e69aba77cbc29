package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireBearer rejects requests whose Authorization header does not carry a
// known bearer token. tokens maps broker name to its token; a request for a
// broker without its own token may use any configured one. When broker is
// repeated the token must be valid for every value. deny writes the rejection
// body.
func RequireBearer(tokens map[string]string, deny http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || !acceptedAll(tokens, r.URL.Query()["broker"], token) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				deny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func acceptedAll(tokens map[string]string, brokers []string, token string) bool {
	if len(brokers) == 0 {
		return accepted(tokens, "", token)
	}
	for _, b := range brokers {
		if !accepted(tokens, b, token) {
			return false
		}
	}
	return true
}

func accepted(tokens map[string]string, broker, token string) bool {
	if want, ok := tokens[broker]; ok {
		return equal(want, token)
	}
	for _, want := range tokens {
		if equal(want, token) {
			return true
		}
	}
	return false
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
