package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"msitushield/internal/db"
	"msitushield/internal/models"
)

// isSecureRequest checks if the request came over HTTPS (directly or via reverse proxy)
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	return strings.EqualFold(proto, "https")
}

// Register handles operator signup
func Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Username == "" || req.FullName == "" {
		jsonError(w, "Username and full name are required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		jsonError(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 6 {
		jsonError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		jsonError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user, err := db.CreateUser(db.DB, req.Username, req.Email, req.FullName, hash)
	if err == db.ErrUserExists {
		jsonError(w, "Username or email already registered", http.StatusConflict)
		return
	}
	if err != nil {
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Printf("👤 Registered: %s", user.Username)
	jsonResponse(w, user)
}

// Login handles user authentication
func Login(config models.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !config.AuthEnabled {
			jsonResponse(w, map[string]interface{}{
				"success": true,
				"message": "Authentication disabled",
			})
			return
		}

		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}

		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			jsonError(w, "Invalid request", http.StatusBadRequest)
			return
		}

		// One uniform failure message: never reveal whether the user
		// exists or the password was wrong.
		user, err := db.GetUserByUsername(db.DB, creds.Username)
		if err != nil || user == nil || !CheckPassword(user.PasswordHash, creds.Password) {
			jsonError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}

		token, expiresAt, err := CreateSession(user.ID)
		if err != nil {
			jsonError(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
		})

		log.Printf("🔓 Login: %s", user.Username)
		jsonResponse(w, map[string]interface{}{
			"success":      true,
			"access_token": token,
			"token_type":   "bearer",
			"username":     user.Username,
		})
	}
}

// Logout handles user logout
func Logout(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromRequest(r)
	if session != nil {
		DeleteSession(session.Token)
		log.Printf("🔒 Logout: %s", session.Username)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})

	jsonResponse(w, map[string]string{"status": "logged_out"})
}

// GetCurrentUser returns the authenticated operator's account
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r)
	if session == nil {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// The synthetic dev-mode session has no account row behind it.
	if session.UserID == 0 {
		jsonResponse(w, models.User{Username: session.Username, FullName: "Development operator"})
		return
	}

	user, err := db.GetUserByID(db.DB, session.UserID)
	if err != nil || user == nil {
		jsonError(w, "User not found", http.StatusNotFound)
		return
	}

	jsonResponse(w, user)
}

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
