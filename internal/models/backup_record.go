// internal/models/backup_record.go
package models

import (
	"time"
)

// BackupRecord is the append-only audit of archived backups. A row is
// created exactly once per successful archive copy and is never updated or
// deleted; its existence gates the destructive steps of the return workflow.
type BackupRecord struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	ApplicationID       uint      `json:"application_id" gorm:"not null;index"`
	PterodactylBackupID string    `json:"pterodactyl_backup_id" gorm:"type:varchar(64);not null"`
	ArchivePath         string    `json:"archive_path" gorm:"type:varchar(1024);not null"`
	BackupDate          time.Time `json:"backup_date" gorm:"not null"`
	Comment             string    `json:"comment" gorm:"type:varchar(100)"`

	CreatedAt time.Time `json:"created_at"`
}
