// internal/services/dependencies.go
package services

import (
	"context"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/pterodactyl"
)

// PanelClient is the slice of the panel control plane the orchestrators use.
// *pterodactyl.Client implements it.
type PanelClient interface {
	Servers(ctx context.Context) ([]pterodactyl.Server, error)
	ServerBackups(ctx context.Context, serverID int) ([]pterodactyl.Backup, error)
	LockBackup(ctx context.Context, serverID int, backupID string) error
	UnlockBackup(ctx context.Context, serverID int, backupID string) error
	ReinstallServer(ctx context.Context, serverID int) error
	CreateUser(ctx context.Context, username, email string) (pterodactyl.User, error)
	AddServerUser(ctx context.Context, serverID, userID int) error
	RemoveServerUser(ctx context.Context, serverID, userID int) error
	BackupDownloadURL(ctx context.Context, serverID int, backupID string) (string, error)
}

// NotificationGateway delivers messages to users and channels. Callers treat
// every send as best-effort. *discord.Client implements it.
type NotificationGateway interface {
	SendDirect(ctx context.Context, userID, content string) error
	SendToChannel(ctx context.Context, channelID, content string) error
}

// RoleGranter grants the platform-level panel access role.
// *discord.Client implements it.
type RoleGranter interface {
	AddGuildRole(ctx context.Context, guildID, userID, roleID string) error
}

// Archiver copies a backup artifact into long-term storage. A failed copy is
// a hard error that stops the return workflow. *archive.S3Archiver
// implements it.
type Archiver interface {
	Copy(ctx context.Context, sourceRef, destPath string) error
}
