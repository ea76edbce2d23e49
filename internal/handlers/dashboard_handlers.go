package handlers

import (
	"database/sql"
	"net/http"

	"msitushield/internal/db"
)

// DashboardHandler handles dashboard-related API requests
type DashboardHandler struct {
	DB *sql.DB
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(database *sql.DB) *DashboardHandler {
	return &DashboardHandler{DB: database}
}

// GetOverview handles GET /api/dashboard/overview
// Returns every sensor with its derived status plus global alert counters,
// computed from a single consistent snapshot of the store.
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := db.GetDashboardOverview(h.DB)
	if err != nil {
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	JSONResponse(w, overview)
}
