package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"alumni-portal/apperr"
	"alumni-portal/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// SessionParser validates a session token
type SessionParser interface {
	ParseJWT(token string) (*utils.Claims, error)
}

// ClaimsFromContext returns the claims RequireSession attached, if any
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok && claims != nil
}

func sessionClaims(sessions SessionParser, r *http.Request) (*utils.Claims, bool) {
	token := utils.TokenFromRequest(r)
	if token == "" {
		return nil, false
	}
	claims, err := sessions.ParseJWT(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireSession rejects API requests without a valid session and attaches
// the user's claims to the request context
func RequireSession(sessions SessionParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := sessionClaims(sessions, r)
			if !ok {
				utils.WriteError(w, apperr.Auth("Unauthorized"), false)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PageGate redirects visitors without a session away from pages under
// prefix to loginPath, remembering where they were headed. Paths outside
// prefix pass untouched.
func PageGate(sessions SessionParser, prefix, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !underPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
			claims, ok := sessionClaims(sessions, r)
			if !ok {
				http.Redirect(w, r, loginPath+"?callbackUrl="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// underPrefix matches prefix itself and anything below it, but not
// siblings such as "/payments" for "/payment".
func underPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
