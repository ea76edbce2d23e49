package main

import (
	"log"
	"net/http"
	"time"

	"msitushield/internal/auth"
	"msitushield/internal/config"
	"msitushield/internal/db"
	"msitushield/internal/events"
	"msitushield/internal/handlers"
	"msitushield/internal/middleware"
	"msitushield/internal/notify"
	"msitushield/internal/storage"
)

func main() {
	cfg := config.Load()

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalf("❌ Database init failed: %v", err)
	}
	defer db.DB.Close()

	if err := notify.InitTables(db.DB); err != nil {
		log.Fatalf("❌ Notification tables init failed: %v", err)
	}
	log.Printf("✅ Database ready (%s)", cfg.DBPath)

	store, err := storage.New(cfg.UploadDir)
	if err != nil {
		log.Fatalf("❌ Upload directory init failed: %v", err)
	}

	bus := events.NewBus()

	dispatcher := notify.NewDispatcher(db.DB, bus, nil)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Expired sessions pile up otherwise; sweep hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		for range ticker.C {
			auth.CleanupExpiredSessions()
		}
	}()

	alerts := handlers.NewAlertHandler(db.DB, store, bus)
	sensors := handlers.NewSensorHandler(db.DB)
	dashboard := handlers.NewDashboardHandler(db.DB)
	live := handlers.NewLiveFeed(bus)

	// Brute-force protection on the auth endpoints only. Alert ingestion
	// is deliberately unlimited: every device report must land.
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handlers.JSONResponse(w, map[string]interface{}{
			"status":       "healthy",
			"service":      "msitushield",
			"live_clients": live.ActiveClients(),
		})
	})

	// Auth
	mux.HandleFunc("POST /api/auth/register", authLimiter.Limit(auth.Register))
	mux.HandleFunc("POST /api/auth/login", authLimiter.Limit(auth.Login(cfg)))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/me", auth.Middleware(cfg, auth.GetCurrentUser))

	// Alerts — ingestion is open to field devices, everything else is
	// operator-only.
	mux.HandleFunc("POST /api/alerts", alerts.IngestAlert)
	mux.HandleFunc("GET /api/alerts", auth.Middleware(cfg, alerts.GetAlerts))
	mux.HandleFunc("GET /api/alerts/live", auth.Middleware(cfg, live.HandleConnection))
	mux.HandleFunc("GET /api/alerts/{id}", auth.Middleware(cfg, alerts.GetAlert))
	mux.HandleFunc("POST /api/alerts/{id}/resolve", auth.Middleware(cfg, alerts.ResolveAlert))

	// Sensors
	mux.HandleFunc("POST /api/sensors", auth.Middleware(cfg, sensors.CreateSensor))
	mux.HandleFunc("GET /api/sensors", auth.Middleware(cfg, sensors.GetSensors))
	mux.HandleFunc("GET /api/sensors/{id}/status", auth.Middleware(cfg, sensors.GetSensorStatus))

	// Dashboard
	mux.HandleFunc("GET /api/dashboard/overview", auth.Middleware(cfg, dashboard.GetOverview))

	// Notifications
	mux.HandleFunc("GET /api/notifications/services", auth.Middleware(cfg, handlers.ListNotificationServices))
	mux.HandleFunc("POST /api/notifications/services", auth.Middleware(cfg, handlers.CreateNotificationService))
	mux.HandleFunc("PUT /api/notifications/services/{id}", auth.Middleware(cfg, handlers.UpdateNotificationService))
	mux.HandleFunc("DELETE /api/notifications/services/{id}", auth.Middleware(cfg, handlers.DeleteNotificationService))
	mux.HandleFunc("POST /api/notifications/services/{id}/test", auth.Middleware(cfg, handlers.TestNotificationService))
	mux.HandleFunc("GET /api/notifications/history", auth.Middleware(cfg, handlers.GetNotificationHistory))

	handler := middleware.CORS(cfg.FrontendURL, middleware.Logging(mux))

	log.Printf("🌲 MsituShield server listening on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatal(err)
	}
}
