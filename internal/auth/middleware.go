package auth

import (
	"context"
	"net/http"
	"strings"

	"msitushield/internal/models"
)

// contextKey is the type for context keys in the auth package
type contextKey string

// SessionKey is the context key for session data
const SessionKey contextKey = "session"

// Middleware checks for valid authentication before calling next.
// Alert ingestion is never routed through this: field devices are unattended
// and report without credentials.
func Middleware(config models.Config, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !config.AuthEnabled {
			// Dev mode runs with a synthetic operator so handlers that
			// need an identity (resolve, /me) still work.
			ctx := context.WithValue(r.Context(), SessionKey, &models.Session{Username: "dev"})
			next(w, r.WithContext(ctx))
			return
		}

		session := GetSessionFromRequest(r)
		if session == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), SessionKey, session)
		next(w, r.WithContext(ctx))
	}
}

// GetSessionFromRequest extracts a session from the request cookie or Authorization header
func GetSessionFromRequest(r *http.Request) *models.Session {
	var token string

	if cookie, err := r.Cookie("session"); err == nil {
		token = cookie.Value
	} else if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}

	return GetSession(token)
}

// GetSessionFromContext extracts the session stored in the request context
func GetSessionFromContext(r *http.Request) *models.Session {
	if session, ok := r.Context().Value(SessionKey).(*models.Session); ok {
		return session
	}
	return nil
}
