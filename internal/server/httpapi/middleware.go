package httpapi

import (
	"context"
	"encoding/hex"
	"net/http"
)

type contextKey int

const sessionTokenKey contextKey = iota

// sessionCookie extracts the hex-encoded session token from the request
// cookie and stores the decoded bytes in the request context. A missing or
// undecodable cookie leaves the context empty; handlers that require a
// session reject the request themselves.
func (s *Server) sessionCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.config.SessionCookieName)
		if err == nil {
			if token, err := hex.DecodeString(cookie.Value); err == nil {
				ctx := context.WithValue(r.Context(), sessionTokenKey, token)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// tokenFromContext returns the decoded session token, if the request carried
// one.
func tokenFromContext(ctx context.Context) ([]byte, bool) {
	token, ok := ctx.Value(sessionTokenKey).([]byte)
	return token, ok
}

// setSessionCookie installs the session cookie on the response.
func (s *Server) setSessionCookie(w http.ResponseWriter, token []byte) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    hex.EncodeToString(token),
		Path:     "/",
		MaxAge:   int(s.config.SessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie on the response.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
