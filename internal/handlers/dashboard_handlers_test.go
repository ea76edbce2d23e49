package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "modernc.org/sqlite"

	"msitushield/internal/db"
	"msitushield/internal/models"
)

func TestGetOverviewEndpoint(t *testing.T) {
	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.CreateSchema(database); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	h := NewDashboardHandler(database)

	user, err := db.CreateUser(database, "asha", "asha@example.com", "Asha", "hash")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	a1, _, _ := db.IngestAlert(database, models.AlertCreate{SensorID: "S1"})
	db.IngestAlert(database, models.AlertCreate{SensorID: "S2"})
	if _, err := db.ResolveAlert(database, a1.ID, user.ID, "real", "confirmed", "uploads/1_e.jpg"); err != nil {
		t.Fatalf("ResolveAlert failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil)
	w := httptest.NewRecorder()
	h.GetOverview(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var overview models.Overview
	if err := json.Unmarshal(w.Body.Bytes(), &overview); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(overview.Sensors) != 2 {
		t.Errorf("sensors = %d, want 2", len(overview.Sensors))
	}
	stats := overview.Statistics
	if stats.TotalAlerts != 2 || stats.UnresolvedAlerts != 1 || stats.ResolvedAlerts != 1 || stats.TotalSensors != 2 {
		t.Errorf("statistics = %+v", stats)
	}
}
