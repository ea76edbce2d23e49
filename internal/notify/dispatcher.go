package notify

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"

	"msitushield/internal/events"
)

// Sender abstracts message dispatch so the dispatcher can be tested
// without hitting real services.
type Sender interface {
	Send(shoutrrrURL, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// Dispatcher subscribes to the event bus, checks per-service event flags
// and cooldowns, and delivers alert notifications via Shoutrrr.
type Dispatcher struct {
	db     *sql.DB
	bus    *events.Bus
	sender Sender

	// lastSent tracks the last dispatch per (service_id, event_type, sensor_id).
	mu       sync.Mutex
	lastSent map[string]time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher wired to the given bus and database.
func NewDispatcher(db *sql.DB, bus *events.Bus, sender Sender) *Dispatcher {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Dispatcher{
		db:       db,
		bus:      bus,
		sender:   sender,
		lastSent: make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}
}

// Start subscribes to all events and begins dispatching.
func (d *Dispatcher) Start() {
	ch := make(chan events.Event, 256)

	d.bus.Subscribe(func(e events.Event) {
		select {
		case ch <- e:
		default:
			log.Printf("notify: event queue full, dropping %s event", e.Type)
		}
	})

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e := <-ch:
				d.handle(e)
			case <-d.stopCh:
				// Drain remaining events
				for {
					select {
					case e := <-ch:
						d.handle(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop signals the dispatcher goroutine to finish and waits for it.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

// handle processes a single event against all enabled services.
func (d *Dispatcher) handle(e events.Event) {
	services, err := ListEnabledServices(d.db)
	if err != nil {
		log.Printf("notify: list services: %v", err)
		return
	}

	for _, svc := range services {
		if !eventAllowed(svc, e.Type) {
			continue
		}
		if d.inCooldown(svc, e) {
			continue
		}
		d.dispatch(svc, e)
	}
}

// eventAllowed checks the service's per-event flags.
func eventAllowed(svc Service, t events.EventType) bool {
	switch t {
	case events.AlertCreated:
		return svc.NotifyOnCreated
	case events.AlertResolved:
		return svc.NotifyOnResolved
	case events.SensorProvisioned:
		return svc.NotifyOnProvision
	default:
		return false
	}
}

// inCooldown reports whether a matching notification went out too recently.
// The key includes the sensor, so a flapping sensor cannot silence alerts
// from the rest of the fleet.
func (d *Dispatcher) inCooldown(svc Service, e events.Event) bool {
	if svc.CooldownSecs <= 0 {
		return false
	}

	key := fmt.Sprintf("%d:%s:%s", svc.ID, e.Type, e.SensorID)
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.lastSent[key]; ok && now.Sub(last) < time.Duration(svc.CooldownSecs)*time.Second {
		return true
	}
	d.lastSent[key] = now
	return false
}

// dispatch sends the notification and records the result.
func (d *Dispatcher) dispatch(svc Service, e events.Event) {
	if svc.ShoutrrrURL == "" {
		log.Printf("notify: service %d (%s) has no shoutrrr_url", svc.ID, svc.Name)
		return
	}

	msg := formatMessage(e)
	err := d.sender.Send(svc.ShoutrrrURL, msg)

	rec := &Record{
		ServiceID: svc.ID,
		EventType: string(e.Type),
		SensorID:  e.SensorID,
		Message:   msg,
	}

	if err != nil {
		rec.Status = "failed"
		rec.ErrorMessage = err.Error()
		log.Printf("notify: send to %s failed: %v", svc.Name, err)
	} else {
		rec.Status = "sent"
		rec.SentAt = time.Now().UTC()
	}

	if _, dbErr := RecordNotification(d.db, rec); dbErr != nil {
		log.Printf("notify: record history: %v", dbErr)
	}
}

// formatMessage builds a human-readable notification string.
func formatMessage(e events.Event) string {
	if e.SensorName != "" {
		return fmt.Sprintf("[%s] [%s] %s", e.Severity, e.SensorName, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
}
