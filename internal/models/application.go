// internal/models/application.go
package models

import (
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "PENDING"
	ApplicationStatusActive      ApplicationStatus = "ACTIVE"
	ApplicationStatusNeedsBackup ApplicationStatus = "NEEDS_BACKUP"
	ApplicationStatusReturned    ApplicationStatus = "RETURNED"
	ApplicationStatusRejected    ApplicationStatus = "REJECTED"
)

// Application is one server rental request moving through the approval and
// return workflow. StartDate/EndDate are set when the application becomes
// ACTIVE; PterodactylServerID is set exactly once by server assignment.
type Application struct {
	ID                 uint              `json:"id" gorm:"primaryKey"`
	Status             ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApplicantDiscordID string            `json:"applicant_discord_id" gorm:"type:varchar(32);not null"`
	OrganizerDiscordID string            `json:"organizer_discord_id" gorm:"type:varchar(32);not null"`
	Description        string            `json:"description" gorm:"type:varchar(500);not null"`
	MinecraftVersion   string            `json:"minecraft_version" gorm:"type:varchar(20);not null"`
	RequestedPeriod    int               `json:"requested_period" gorm:"not null"`

	StartDate           *time.Time `json:"start_date,omitempty"`
	EndDate             *time.Time `json:"end_date,omitempty" gorm:"index"`
	PterodactylServerID *int       `json:"pterodactyl_server_id,omitempty"`

	PanelUsers []ApplicationPanelUser `json:"panel_users,omitempty" gorm:"foreignKey:ApplicationID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
