// internal/models/panel_user.go
package models

import (
	"time"
)

// PanelUser is a person eligible for panel access. Rows are created lazily
// the first time a Discord user is named in an application; the Pterodactyl
// fields are filled in at approval/provisioning time.
type PanelUser struct {
	ID                  uint   `json:"id" gorm:"primaryKey"`
	DiscordUserID       string `json:"discord_user_id" gorm:"type:varchar(32);uniqueIndex;not null"`
	PterodactylUsername string `json:"pterodactyl_username" gorm:"type:varchar(64)"`
	PterodactylEmail    string `json:"pterodactyl_email" gorm:"type:varchar(255)"`
	PterodactylUserID   *int   `json:"pterodactyl_user_id,omitempty"`

	// HasDiscordRole guards the best-effort role grant so it runs at most
	// once per user across assignments.
	HasDiscordRole bool `json:"has_discord_role" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplicationPanelUser associates an application with one panel-access
// grantee. Created at submission time, immutable thereafter.
type ApplicationPanelUser struct {
	ID            uint `json:"id" gorm:"primaryKey"`
	ApplicationID uint `json:"application_id" gorm:"not null;uniqueIndex:idx_application_panel_user"`
	PanelUserID   uint `json:"panel_user_id" gorm:"not null;uniqueIndex:idx_application_panel_user"`

	PanelUser PanelUser `json:"panel_user" gorm:"foreignKey:PanelUserID"`

	CreatedAt time.Time `json:"created_at"`
}
