package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"msitushield/internal/models"
)

// ErrUserExists is returned when the username or email is already registered.
var ErrUserExists = errors.New("username or email already registered")

// CreateUser stores a new operator account. The caller supplies the
// already-hashed password; plaintext never reaches this layer.
func CreateUser(db *sql.DB, username, email, fullName, passwordHash string) (*models.User, error) {
	result, err := db.Exec(`
		INSERT INTO users (username, email, full_name, password_hash)
		VALUES (?, ?, ?, ?)
	`, username, email, fullName, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	return GetUserByID(db, id)
}

// GetUserByID retrieves a user by primary key. Returns nil when absent.
func GetUserByID(db *sql.DB, id int64) (*models.User, error) {
	row := db.QueryRow(`
		SELECT id, username, email, full_name, password_hash, created_at
		FROM users
		WHERE id = ?
	`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username. Returns nil when absent.
func GetUserByUsername(db *sql.DB, username string) (*models.User, error) {
	row := db.QueryRow(`
		SELECT id, username, email, full_name, password_hash, created_at
		FROM users
		WHERE username = ?
	`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}
