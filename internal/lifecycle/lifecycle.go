// internal/lifecycle/lifecycle.go

// Package lifecycle defines the application state machine. It is pure
// validation and apply logic: callers perform their I/O first and request
// the transition as the final step of a successful operation, which makes
// the transition the commit point of each workflow.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// transitions is the full directed graph of valid status changes.
// PENDING -> ACTIVE       approval + assignment completed
// PENDING -> REJECTED     rejection
// ACTIVE  -> NEEDS_BACKUP expiry detected
// NEEDS_BACKUP -> RETURNED return processing completed
var transitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationStatusPending:     {models.ApplicationStatusActive, models.ApplicationStatusRejected},
	models.ApplicationStatusActive:      {models.ApplicationStatusNeedsBackup},
	models.ApplicationStatusNeedsBackup: {models.ApplicationStatusReturned},
}

// CanTransition reports whether from -> to is an edge of the transition
// graph. Terminal states (RETURNED, REJECTED) have no outgoing edges.
func CanTransition(from, to models.ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies from-current-status to target on the application in
// memory, or returns ErrInvalidTransition leaving it unchanged. It does not
// persist anything.
func Transition(app *models.Application, to models.ApplicationStatus) error {
	if !CanTransition(app.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, app.Status, to)
	}
	app.Status = to
	return nil
}

// Activate transitions a pending application to ACTIVE and stamps the rental
// window: startDate = now, endDate = startDate + requestedPeriod days.
func Activate(app *models.Application, now time.Time) error {
	if err := Transition(app, models.ApplicationStatusActive); err != nil {
		return err
	}
	end := now.AddDate(0, 0, app.RequestedPeriod)
	app.StartDate = &now
	app.EndDate = &end
	return nil
}
