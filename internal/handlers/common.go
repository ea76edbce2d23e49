package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"msitushield/internal/auth"
	"msitushield/internal/models"
)

// JSONResponse sends a JSON response
func JSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

// JSONError sends a JSON error response
func JSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sessionFromContext extracts the authenticated session, if any.
func sessionFromContext(r *http.Request) *models.Session {
	return auth.GetSessionFromContext(r)
}
