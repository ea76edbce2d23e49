package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"msitushield/internal/db"
	"msitushield/internal/events"
	"msitushield/internal/models"
	"msitushield/internal/storage"
)

// maxEvidenceSize caps uploaded evidence attachments (32 MB).
const maxEvidenceSize = 32 << 20

// AlertHandler handles alert lifecycle API requests
type AlertHandler struct {
	DB    *sql.DB
	Store *storage.Store
	Bus   *events.Bus
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(database *sql.DB, store *storage.Store, bus *events.Bus) *AlertHandler {
	return &AlertHandler{DB: database, Store: store, Bus: bus}
}

// IngestAlert handles POST /api/alerts
// Called by field devices without authentication. Unknown sensors are
// provisioned on the fly; ingestion never fails for an unseen sensor_id.
func (h *AlertHandler) IngestAlert(w http.ResponseWriter, r *http.Request) {
	var req models.AlertCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.SensorID = strings.TrimSpace(req.SensorID)
	if req.SensorID == "" {
		JSONError(w, "sensor_id is required", http.StatusBadRequest)
		return
	}

	alert, provisioned, err := db.IngestAlert(h.DB, req)
	if err != nil {
		log.Printf("❌ Ingest failed for sensor %s: %v", req.SensorID, err)
		JSONError(w, "database error", http.StatusInternalServerError)
		return
	}

	if provisioned {
		log.Printf("📡 Provisioned sensor %s (%s)", alert.SensorID, alert.SensorName)
		h.Bus.Publish(events.Event{
			Type:       events.SensorProvisioned,
			Severity:   events.SeverityInfo,
			SensorID:   alert.SensorID,
			SensorName: alert.SensorName,
			Message:    fmt.Sprintf("Sensor %s auto-provisioned on first alert", alert.SensorID),
		})
	}

	h.Bus.Publish(events.Event{
		Type:       events.AlertCreated,
		Severity:   events.SeverityWarning,
		SensorID:   alert.SensorID,
		SensorName: alert.SensorName,
		AlertID:    alert.ID,
		Message:    fmt.Sprintf("Threat reported by %s", alert.SensorName),
	})

	JSONResponse(w, alert)
}

// GetAlerts handles GET /api/alerts
// Query params: resolved (true/false), sensor_id, limit
func (h *AlertHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	filter := db.AlertFilter{
		SensorID: r.URL.Query().Get("sensor_id"),
	}

	if res := r.URL.Query().Get("resolved"); res != "" {
		resolved := res == "true"
		filter.Resolved = &resolved
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			filter.Limit = l
		}
	}

	alerts, err := db.GetAlerts(h.DB, filter)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	JSONResponse(w, alerts)
}

// GetAlert handles GET /api/alerts/{id}
func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid alert ID", http.StatusBadRequest)
		return
	}

	alert, err := db.GetAlertByID(h.DB, id)
	if errors.Is(err, db.ErrAlertNotFound) {
		JSONError(w, "alert not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	JSONResponse(w, alert)
}

// ResolveAlert handles POST /api/alerts/{id}/resolve
// Multipart form fields: threat_type, details, file (evidence attachment).
// The transition is one-way; a second resolve attempt gets 409.
func (h *AlertHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		JSONError(w, "invalid alert ID", http.StatusBadRequest)
		return
	}

	session := sessionFromContext(r)
	if session == nil {
		JSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxEvidenceSize); err != nil {
		JSONError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	threatType := strings.TrimSpace(r.FormValue("threat_type"))
	details := strings.TrimSpace(r.FormValue("details"))
	if threatType == "" || details == "" {
		JSONError(w, "threat_type and details are required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, "evidence file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Reject unknown or already-resolved alerts before touching storage.
	existing, err := db.GetAlertByID(h.DB, id)
	if errors.Is(err, db.ErrAlertNotFound) {
		JSONError(w, "alert not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if existing.Resolved {
		JSONError(w, "alert already resolved", http.StatusConflict)
		return
	}

	path, err := h.Store.Save(id, header.Filename, file)
	if err != nil {
		log.Printf("❌ Evidence write failed for alert %d: %v", id, err)
		JSONError(w, "failed to store evidence file", http.StatusInternalServerError)
		return
	}

	alert, err := db.ResolveAlert(h.DB, id, session.UserID, threatType, details, path)
	if err != nil {
		// The resolution did not happen; don't leave orphaned evidence.
		h.cleanupEvidence(id, path)

		if errors.Is(err, db.ErrAlertResolved) {
			JSONError(w, "alert already resolved", http.StatusConflict)
			return
		}
		if errors.Is(err, db.ErrAlertNotFound) {
			JSONError(w, "alert not found", http.StatusNotFound)
			return
		}
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Alert %d resolved by %s (%s)", id, session.Username, threatType)
	h.Bus.Publish(events.Event{
		Type:       events.AlertResolved,
		Severity:   events.SeverityInfo,
		SensorID:   alert.SensorID,
		SensorName: alert.SensorName,
		AlertID:    alert.ID,
		Message:    fmt.Sprintf("Alert %d resolved as %q by %s", alert.ID, threatType, session.Username),
	})

	JSONResponse(w, alert)
}

// cleanupEvidence backs out an evidence write after a failed resolution.
// Two resolves racing with the same upload filename target the same stored
// path; if the other request won, the file now backs its committed
// resolution and must be left in place.
func (h *AlertHandler) cleanupEvidence(id int64, path string) {
	if current, err := db.GetAlertByID(h.DB, id); err == nil && current.AttachmentPath == path {
		return
	}
	if err := h.Store.Remove(path); err != nil {
		log.Printf("⚠️  Evidence cleanup failed for alert %d: %v", id, err)
	}
}
