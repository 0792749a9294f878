// internal/services/errors.go
package services

import (
	"errors"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	// ErrApplicationNotPending is returned when approval or rejection is
	// attempted on an application that already left the PENDING state.
	ErrApplicationNotPending = errors.New("application is not pending")
	// ErrUsernameCountMismatch is returned when the number of panel usernames
	// supplied at approval does not equal the number of grantees.
	ErrUsernameCountMismatch = errors.New("username count does not match panel user count")
	// ErrAlreadyAssigned guards against double provisioning: a server is
	// assigned to an application at most once.
	ErrAlreadyAssigned = errors.New("application already has a server assigned")
	ErrNoCapacity      = errors.New("no available server found")
	// ErrProvisioningFailed wraps panel account creation or access grant
	// failures during assignment.
	ErrProvisioningFailed = errors.New("server provisioning failed")
	ErrServerNotAssigned  = errors.New("no server assigned to application")
	ErrServerNotFound     = errors.New("assigned server not found on panel")
	ErrBackupNotFound     = errors.New("backup not found")
	// ErrNotAwaitingReturn is returned when return processing is attempted on
	// an application that is not in the NEEDS_BACKUP state.
	ErrNotAwaitingReturn = errors.New("application is not awaiting return")
)
