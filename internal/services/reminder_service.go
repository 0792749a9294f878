// internal/services/reminder_service.go
package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/config"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
)

// ReminderService runs the periodic expiry scan: reminders for rentals about
// to expire and promotion of expired rentals into the return queue.
type ReminderService struct {
	db            *gorm.DB
	notifications *NotificationService
	config        *config.Config
}

func NewReminderService(db *gorm.DB, notifications *NotificationService, config *config.Config) *ReminderService {
	return &ReminderService{
		db:            db,
		notifications: notifications,
		config:        config,
	}
}

// Start runs an immediate scan and then rescans on the configured interval
// until the context is cancelled. Scans run on a single goroutine, so a slow
// scan delays the next tick instead of overlapping with it.
func (s *ReminderService) Start(ctx context.Context) {
	interval := time.Duration(s.config.Reminders.IntervalMinutes) * time.Minute
	logrus.WithField("interval", interval).Info("Starting expiry scanner")

	s.CheckAndSendReminders(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Expiry scanner stopped")
			return
		case <-ticker.C:
			s.CheckAndSendReminders(ctx, time.Now())
		}
	}
}

// CheckAndSendReminders performs one scan at the given reference time. Scan
// errors are logged, never returned: a failed scan is retried wholesale on
// the next tick.
func (s *ReminderService) CheckAndSendReminders(ctx context.Context, now time.Time) {
	for _, days := range s.config.Reminders.DaysBeforeExpiry {
		s.remindExpiringIn(ctx, now, days)
	}
	s.promoteExpired(ctx, now)
}

// remindExpiringIn notifies organizers of rentals whose end date falls on
// the calendar day `days` from now.
func (s *ReminderService) remindExpiringIn(ctx context.Context, now time.Time, days int) {
	dayStart := startOfDay(now.AddDate(0, 0, days))
	dayEnd := dayStart.AddDate(0, 0, 1)

	var applications []models.Application
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ApplicationStatusActive).
		Where("end_date >= ? AND end_date < ?", dayStart, dayEnd).
		Preload("PanelUsers.PanelUser").
		Find(&applications).Error
	if err != nil {
		logrus.WithError(err).WithField("days", days).Error("Expiry reminder query failed")
		return
	}

	for i := range applications {
		logrus.WithFields(logrus.Fields{
			"application_id": applications[i].ID,
			"days":           days,
		}).Info("Sending expiry reminder")
		s.notifications.SendExpirationReminder(ctx, &applications[i], days)
	}
}

// promoteExpired moves rentals past their end date into NEEDS_BACKUP and
// posts a summary of the newly expired batch.
func (s *ReminderService) promoteExpired(ctx context.Context, now time.Time) {
	var applications []models.Application
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ApplicationStatusActive).
		Where("end_date < ?", now).
		Preload("PanelUsers.PanelUser").
		Find(&applications).Error
	if err != nil {
		logrus.WithError(err).Error("Expired rental query failed")
		return
	}
	if len(applications) == 0 {
		return
	}

	ids := make([]uint, 0, len(applications))
	for i := range applications {
		ids = append(ids, applications[i].ID)
		applications[i].Status = models.ApplicationStatusNeedsBackup
	}

	err = s.db.WithContext(ctx).Model(&models.Application{}).
		Where("id IN ?", ids).
		Update("status", models.ApplicationStatusNeedsBackup).Error
	if err != nil {
		logrus.WithError(err).Error("Failed to mark expired rentals")
		return
	}

	logrus.WithField("count", len(ids)).Info("Expired rentals queued for return")
	s.notifications.SendExpiredSummary(ctx, applications)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
