// Command sensor reports threat alerts to a MsituShield server, standing in
// for a field device. Useful for smoke-testing deployments and demos.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const version = "1.0.0"

type alertPayload struct {
	SensorID   string    `json:"sensor_id"`
	SensorName string    `json:"sensor_name,omitempty"`
	AlertTime  time.Time `json:"alert_time"`
}

func main() {
	serverURL := flag.String("server", "http://localhost:8000", "MsituShield server URL")
	sensorID := flag.String("id", "", "Sensor ID (required)")
	sensorName := flag.String("name", "", "Sensor display name")
	interval := flag.Int("interval", 0, "Reporting interval in seconds (0 for single report)")
	showVersion := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("msitushield-sensor v%s\n", version)
		os.Exit(0)
	}

	if *sensorID == "" {
		log.Fatal("❌ Error: -id is required")
	}

	log.SetFlags(log.Ltime | log.Ldate)
	log.Printf("🚀 Sensor reporter v%s starting...", version)
	log.Printf("✓ Sensor: %s", *sensorID)
	log.Printf("✓ Server: %s", *serverURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n⏹️  Shutting down...")
		cancel()
	}()

	sendAlert(ctx, *serverURL, *sensorID, *sensorName)

	if *interval <= 0 {
		log.Println("✅ Single report complete")
		return
	}

	log.Printf("📊 Reporting every %d seconds", *interval)
	ticker := time.NewTicker(time.Duration(*interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("👋 Reporter stopped")
			return
		case <-ticker.C:
			sendAlert(ctx, *serverURL, *sensorID, *sensorName)
		}
	}
}

func sendAlert(ctx context.Context, serverURL, sensorID, sensorName string) {
	payload := alertPayload{
		SensorID:   sensorID,
		SensorName: sensorName,
		AlertTime:  time.Now().UTC(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to encode alert: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		serverURL+"/api/alerts", bytes.NewReader(body))
	if err != nil {
		log.Printf("⚠️  Failed to build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("⚠️  Report failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️  Server returned %s", resp.Status)
		return
	}

	log.Printf("📡 Alert reported for %s", sensorID)
}
