package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"msitushield/internal/db"
	"msitushield/internal/models"
)

// sessionTTL is how long a login stays valid.
const sessionTTL = 7 * 24 * time.Hour

// HashPassword creates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken creates a secure random token
func GenerateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetSession retrieves a session by token
func GetSession(token string) *models.Session {
	if token == "" {
		return nil
	}

	var session models.Session

	err := db.DB.QueryRow(`
		SELECT s.token, s.user_id, u.username, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > datetime('now')
	`, token).Scan(&session.Token, &session.UserID, &session.Username, &session.ExpiresAt)

	if err != nil {
		return nil
	}

	return &session
}

// CreateSession creates a new session for a user
func CreateSession(userID int64) (string, time.Time, error) {
	token := GenerateToken()
	expiresAt := time.Now().Add(sessionTTL)

	_, err := db.DB.Exec(
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, userID, expiresAt.UTC().Format("2006-01-02 15:04:05"),
	)
	return token, expiresAt, err
}

// DeleteSession removes a session
func DeleteSession(token string) {
	db.DB.Exec("DELETE FROM sessions WHERE token = ?", token)
}

// CleanupExpiredSessions removes expired sessions from the database
func CleanupExpiredSessions() {
	db.DB.Exec("DELETE FROM sessions WHERE expires_at < datetime('now')")
}
