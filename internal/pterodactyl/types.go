// internal/pterodactyl/types.go
package pterodactyl

import (
	"time"
)

// Server is a panel-hosted server instance as returned by the application
// API. ID is the numeric panel id used in API paths and recorded on
// assigned applications; Identifier is the short display identifier.
type Server struct {
	ID         int    `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Suspended  bool   `json:"suspended"`
}

// Backup is one backup snapshot of a server.
type Backup struct {
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	Bytes        int64     `json:"bytes"`
	CreatedAt    time.Time `json:"created_at"`
	IsSuccessful bool      `json:"is_successful"`
	IsLocked     bool      `json:"is_locked"`
}

// User is a panel account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
