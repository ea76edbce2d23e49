package notify

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := InitTables(db); err != nil {
		t.Fatalf("Failed to create notification tables: %v", err)
	}

	return db
}

func TestServiceCRUD(t *testing.T) {
	db := setupTestDB(t)

	created, err := CreateService(db, &Service{
		Name:            "Ranger Discord",
		ServiceType:     "discord",
		ShoutrrrURL:     "discord://token@channel",
		Enabled:         true,
		NotifyOnCreated: true,
		CooldownSecs:    300,
	})
	if err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("service ID should be assigned")
	}
	if !created.NotifyOnCreated || created.NotifyOnResolved {
		t.Errorf("event flags = %+v", created)
	}

	created.Name = "Renamed"
	created.NotifyOnResolved = true
	if err := UpdateService(db, created); err != nil {
		t.Fatalf("UpdateService failed: %v", err)
	}

	got, err := GetService(db, created.ID)
	if err != nil {
		t.Fatalf("GetService failed: %v", err)
	}
	if got.Name != "Renamed" || !got.NotifyOnResolved {
		t.Errorf("updated service = %+v", got)
	}

	if err := DeleteService(db, created.ID); err != nil {
		t.Fatalf("DeleteService failed: %v", err)
	}
	if _, err := GetService(db, created.ID); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("error after delete = %v, want ErrServiceNotFound", err)
	}
}

func TestUpdateUnknownService(t *testing.T) {
	db := setupTestDB(t)

	err := UpdateService(db, &Service{ID: 42, Name: "x", ShoutrrrURL: "y"})
	if !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("error = %v, want ErrServiceNotFound", err)
	}
}

func TestListEnabledServicesFilters(t *testing.T) {
	db := setupTestDB(t)

	CreateService(db, &Service{Name: "on", ServiceType: "discord", ShoutrrrURL: "u", Enabled: true})
	CreateService(db, &Service{Name: "off", ServiceType: "slack", ShoutrrrURL: "u", Enabled: false})

	all, err := ListServices(db)
	if err != nil {
		t.Fatalf("ListServices failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all services = %d, want 2", len(all))
	}

	enabled, err := ListEnabledServices(db)
	if err != nil {
		t.Fatalf("ListEnabledServices failed: %v", err)
	}
	if len(enabled) != 1 || enabled[0].Name != "on" {
		t.Errorf("enabled services = %+v", enabled)
	}
}

func TestRecordAndListHistory(t *testing.T) {
	db := setupTestDB(t)

	svc, err := CreateService(db, &Service{Name: "s", ServiceType: "discord", ShoutrrrURL: "u", Enabled: true})
	if err != nil {
		t.Fatalf("CreateService failed: %v", err)
	}

	if _, err := RecordNotification(db, &Record{
		ServiceID: svc.ID,
		EventType: "alert_created",
		SensorID:  "S1",
		Message:   "[warning] [Ridge] New alert",
		Status:    "sent",
		SentAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("RecordNotification failed: %v", err)
	}

	if _, err := RecordNotification(db, &Record{
		ServiceID:    svc.ID,
		EventType:    "alert_created",
		SensorID:     "S2",
		Message:      "failed one",
		Status:       "failed",
		ErrorMessage: "connection refused",
	}); err != nil {
		t.Fatalf("RecordNotification failed: %v", err)
	}

	records, err := ListHistory(db, 10)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("history = %d records, want 2", len(records))
	}

	byStatus := map[string]Record{}
	for _, r := range records {
		byStatus[r.Status] = r
	}
	if sent := byStatus["sent"]; sent.SentAt.IsZero() {
		t.Error("sent record should carry sent_at")
	}
	if failed := byStatus["failed"]; failed.ErrorMessage != "connection refused" {
		t.Errorf("failed record = %+v", failed)
	}
}
