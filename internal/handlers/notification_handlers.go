package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"msitushield/internal/db"
	"msitushield/internal/notify"
)

// NotifySender is set from main.go to enable test-fire.
// It uses the same Sender interface as the dispatcher.
var NotifySender notify.Sender = notify.ShoutrrrSender{}

// ListNotificationServices returns all configured services.
// GET /api/notifications/services
func ListNotificationServices(w http.ResponseWriter, r *http.Request) {
	services, err := notify.ListServices(db.DB)
	if err != nil {
		log.Printf("❌ List notification services: %v", err)
		JSONError(w, "Failed to list services", http.StatusInternalServerError)
		return
	}
	if services == nil {
		services = []notify.Service{}
	}
	JSONResponse(w, services)
}

// CreateNotificationService adds a new destination.
// POST /api/notifications/services
func CreateNotificationService(w http.ResponseWriter, r *http.Request) {
	var svc notify.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" || svc.ShoutrrrURL == "" {
		JSONError(w, "name and shoutrrr_url are required", http.StatusBadRequest)
		return
	}

	created, err := notify.CreateService(db.DB, &svc)
	if err != nil {
		log.Printf("❌ Create notification service: %v", err)
		JSONError(w, "Failed to create service", http.StatusInternalServerError)
		return
	}

	JSONResponse(w, created)
}

// UpdateNotificationService overwrites a destination's configuration.
// PUT /api/notifications/services/{id}
func UpdateNotificationService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid service ID", http.StatusBadRequest)
		return
	}

	var svc notify.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		JSONError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	svc.ID = id

	if err := notify.UpdateService(db.DB, &svc); err != nil {
		if errors.Is(err, notify.ErrServiceNotFound) {
			JSONError(w, "service not found", http.StatusNotFound)
			return
		}
		JSONError(w, "Failed to update service", http.StatusInternalServerError)
		return
	}

	updated, err := notify.GetService(db.DB, id)
	if err != nil {
		JSONError(w, "Failed to load service", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, updated)
}

// DeleteNotificationService removes a destination and its history.
// DELETE /api/notifications/services/{id}
func DeleteNotificationService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid service ID", http.StatusBadRequest)
		return
	}

	if err := notify.DeleteService(db.DB, id); err != nil {
		if errors.Is(err, notify.ErrServiceNotFound) {
			JSONError(w, "service not found", http.StatusNotFound)
			return
		}
		JSONError(w, "Failed to delete service", http.StatusInternalServerError)
		return
	}

	JSONResponse(w, map[string]interface{}{"status": "deleted", "id": id})
}

// TestNotificationService fires a test message at one destination.
// POST /api/notifications/services/{id}/test
func TestNotificationService(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid service ID", http.StatusBadRequest)
		return
	}

	svc, err := notify.GetService(db.DB, id)
	if errors.Is(err, notify.ErrServiceNotFound) {
		JSONError(w, "service not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, "Failed to load service", http.StatusInternalServerError)
		return
	}

	if err := NotifySender.Send(svc.ShoutrrrURL, "MsituShield test notification"); err != nil {
		JSONError(w, "Test send failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	JSONResponse(w, map[string]string{"status": "sent"})
}

// GetNotificationHistory returns recent notification attempts.
// GET /api/notifications/history?limit=
func GetNotificationHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	records, err := notify.ListHistory(db.DB, limit)
	if err != nil {
		JSONError(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []notify.Record{}
	}
	JSONResponse(w, records)
}
