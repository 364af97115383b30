package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/config"
	"github.com/carlogapp/carlog-api/models"
	"github.com/carlogapp/carlog-api/store"
	templates "github.com/carlogapp/carlog-api/templates/html"
)

const (
	// reminderAfter is how long a vehicle may go without a logged
	// service before the owner gets an email.
	reminderAfter = 180 * 24 * time.Hour

	// reminderCooldown stops a stale vehicle from generating an email
	// on every run.
	reminderCooldown = 30 * 24 * time.Hour
)

// Scheduler handles the periodic background jobs: flushing queued
// write-throughs and mailing maintenance reminders
type Scheduler struct {
	cron  *cron.Cron
	Store *store.RecordStore
	Conf  *config.Config

	mu           sync.Mutex
	lastReminded map[string]time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(s *store.RecordStore, conf *config.Config) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(time.UTC)),
		Store:        s,
		Conf:         conf,
		lastReminded: make(map[string]time.Time),
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Retry queued write-throughs every minute
	_, err := s.cron.AddFunc("@every 1m", s.flushPendingWrites)
	if err != nil {
		zap.S().Errorw("failed to register pending write flush job", "error", err)
	}

	// Check for overdue maintenance daily at 8 AM UTC
	_, err = s.cron.AddFunc("0 8 * * *", s.sendMaintenanceReminders)
	if err != nil {
		zap.S().Errorw("failed to register maintenance reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("CarLog scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("CarLog scheduler stopped")
}

// flushPendingWrites retries write-throughs that failed earlier
func (s *Scheduler) flushPendingWrites() {
	if s.Store.PendingWrites() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	retried, failed := s.Store.RetryPending(ctx)
	zap.S().Infow("flushed pending write-throughs",
		"retried", retried,
		"failed", failed,
		"remaining", s.Store.PendingWrites(),
	)
}

// sendMaintenanceReminders mails the owner about vehicles that have gone too
// long without a recorded service
func (s *Scheduler) sendMaintenanceReminders() {
	now := time.Now()
	reminded := 0

	for _, vehicle := range s.Store.Vehicles() {
		last, mileage := s.lastService(vehicle)
		if now.Sub(last) < reminderAfter {
			continue
		}
		if !s.shouldRemind(vehicle.ID, now) {
			continue
		}

		daysSince := int(now.Sub(last).Hours() / 24)
		subject := "Maintenance reminder: " + vehicle.Name
		htmlContent := templates.RenderMaintenanceReminderEmail(s.Conf.UserName, vehicle.Name, daysSince, mileage)
		plainText := templates.RenderMaintenanceReminderPlainText(vehicle.Name, daysSince)

		if err := s.sendEmail(s.Conf.UserEmail, s.Conf.UserName, subject, htmlContent, plainText); err != nil {
			zap.S().Errorw("failed to send maintenance reminder", "error", err, "vehicleId", vehicle.ID)
			continue
		}
		s.markReminded(vehicle.ID, now)
		reminded++
	}

	zap.S().Infow("maintenance reminder run complete", "remindersSent", reminded)
}

// lastService returns the date and mileage of the vehicle's newest entry,
// falling back to the vehicle's own odometer reading when it has none. A
// vehicle with no entries uses the zero time, which always triggers a
// reminder.
func (s *Scheduler) lastService(vehicle models.Vehicle) (time.Time, int) {
	entries := s.Store.FilteredEntries(vehicle.ID)
	if len(entries) == 0 {
		return time.Time{}, vehicle.Mileage
	}
	return entries[0].Date, entries[0].Mileage
}

func (s *Scheduler) shouldRemind(vehicleID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.lastReminded[vehicleID]
	return !ok || now.Sub(last) >= reminderCooldown
}

func (s *Scheduler) markReminded(vehicleID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReminded[vehicleID] = now
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("CarLog", "no-reply@carlogapp.com")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
