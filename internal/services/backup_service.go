// internal/services/backup_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/config"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/lifecycle"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/pterodactyl"
)

const maxBackupOptions = 10

// BackupService drives the archive-then-reclaim return pipeline.
type BackupService struct {
	db            *gorm.DB
	panel         PanelClient
	archiver      Archiver
	assignments   *AssignmentService
	notifications *NotificationService
	config        *config.Config
}

func NewBackupService(db *gorm.DB, panel PanelClient, archiver Archiver, assignments *AssignmentService, notifications *NotificationService, config *config.Config) *BackupService {
	return &BackupService{
		db:            db,
		panel:         panel,
		archiver:      archiver,
		assignments:   assignments,
		notifications: notifications,
		config:        config,
	}
}

// BackupOptions lists the successful backups of the application's server for
// the operator to choose from. Locked backups sort first, then newest first,
// capped at ten entries.
func (s *BackupService) BackupOptions(ctx context.Context, applicationID uint) ([]pterodactyl.Backup, error) {
	application, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	server, err := s.resolveServer(ctx, application)
	if err != nil {
		return nil, err
	}

	backups, err := s.panel.ServerBackups(ctx, server.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var options []pterodactyl.Backup
	for _, backup := range backups {
		if backup.IsSuccessful {
			options = append(options, backup)
		}
	}
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].IsLocked != options[j].IsLocked {
			return options[i].IsLocked
		}
		return options[i].CreatedAt.After(options[j].CreatedAt)
	})
	if len(options) > maxBackupOptions {
		options = options[:maxBackupOptions]
	}
	return options, nil
}

// LockBackup marks a backup as locked on the panel so routine rotation
// cannot delete it before the return is processed.
func (s *BackupService) LockBackup(ctx context.Context, applicationID uint, backupID string) error {
	application, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	server, err := s.resolveServer(ctx, application)
	if err != nil {
		return err
	}
	if err := s.panel.LockBackup(ctx, server.ID, backupID); err != nil {
		return fmt.Errorf("failed to lock backup: %w", err)
	}
	return nil
}

// ProcessServerReturn archives the chosen backup to long-term storage and
// then reclaims the server: unlock remaining backups, reinstall, revoke
// grantee access, and mark the rental RETURNED. The archive copy and its
// database record strictly precede every destructive step, so a failure
// partway never loses the tenant's data.
func (s *BackupService) ProcessServerReturn(ctx context.Context, applicationID uint, backupID, comment string) (*models.BackupRecord, error) {
	application, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.Status != models.ApplicationStatusNeedsBackup {
		return nil, ErrNotAwaitingReturn
	}

	server, err := s.resolveServer(ctx, application)
	if err != nil {
		return nil, err
	}
	backup, err := s.resolveBackup(ctx, server.ID, backupID)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"application_id": application.ID,
		"server":         server.Identifier,
		"backup_id":      backup.UUID,
	})
	log.Info("Processing server return")

	archivePath := s.buildArchivePath(application, backup, comment)
	sourceRef, err := s.panel.BackupDownloadURL(ctx, server.ID, backup.UUID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup download: %w", err)
	}
	if err := s.archiver.Copy(ctx, sourceRef, archivePath); err != nil {
		return nil, fmt.Errorf("failed to archive backup: %w", err)
	}

	record := &models.BackupRecord{
		ApplicationID:       application.ID,
		PterodactylBackupID: backup.UUID,
		ArchivePath:         archivePath,
		BackupDate:          backup.CreatedAt,
		Comment:             comment,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to record backup: %w", err)
	}
	log.WithField("archive_path", archivePath).Info("Backup archived")

	s.unlockAllBackups(ctx, server.ID)

	// The archive record above survives a reinstall failure, so the
	// operator can retry the reclaim without re-archiving.
	if err := s.panel.ReinstallServer(ctx, server.ID); err != nil {
		return record, fmt.Errorf("failed to reinstall server: %w", err)
	}

	s.assignments.RevokeServerAccess(ctx, application)

	if err := lifecycle.Transition(application, models.ApplicationStatusReturned); err != nil {
		return record, err
	}
	if err := s.db.WithContext(ctx).Save(application).Error; err != nil {
		return record, fmt.Errorf("failed to save application: %w", err)
	}

	log.Info("Server return complete")
	s.notifications.SendReturnNotifications(ctx, application, archivePath)
	return record, nil
}

func (s *BackupService) loadApplication(ctx context.Context, applicationID uint) (*models.Application, error) {
	var application models.Application
	err := s.db.WithContext(ctx).
		Preload("PanelUsers.PanelUser").
		First(&application, applicationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &application, nil
}

func (s *BackupService) resolveServer(ctx context.Context, application *models.Application) (*pterodactyl.Server, error) {
	if application.PterodactylServerID == nil {
		return nil, ErrServerNotAssigned
	}
	servers, err := s.panel.Servers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list panel servers: %w", err)
	}
	for i := range servers {
		if servers[i].ID == *application.PterodactylServerID {
			return &servers[i], nil
		}
	}
	return nil, ErrServerNotFound
}

func (s *BackupService) resolveBackup(ctx context.Context, serverID int, backupID string) (*pterodactyl.Backup, error) {
	backups, err := s.panel.ServerBackups(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	for i := range backups {
		if backups[i].UUID == backupID {
			return &backups[i], nil
		}
	}
	return nil, ErrBackupNotFound
}

// unlockAllBackups clears backup locks so the panel's rotation can reclaim
// space after the archive is safe. Best effort per backup.
func (s *BackupService) unlockAllBackups(ctx context.Context, serverID int) {
	backups, err := s.panel.ServerBackups(ctx, serverID)
	if err != nil {
		logrus.WithError(err).WithField("server_id", serverID).
			Warn("Failed to list backups for unlock")
		return
	}
	for _, backup := range backups {
		if !backup.IsLocked {
			continue
		}
		if err := s.panel.UnlockBackup(ctx, serverID, backup.UUID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"server_id": serverID,
				"backup_id": backup.UUID,
			}).Warn("Failed to unlock backup")
		}
	}
}

// buildArchivePath derives the long-term storage key for an archived backup:
// <base>/<startYear>/[<id>]_<start date>_<description>_[User<last4>]/
// [<backup date>][_<comment>].tar.gz, with filesystem-hostile characters
// replaced.
func (s *BackupService) buildArchivePath(application *models.Application, backup *pterodactyl.Backup, comment string) string {
	start := application.CreatedAt
	if application.StartDate != nil {
		start = *application.StartDate
	}

	organizer := application.OrganizerDiscordID
	if len(organizer) > 4 {
		organizer = organizer[len(organizer)-4:]
	}

	folder := fmt.Sprintf("[%d]_%s_%s_[User%s]",
		application.ID,
		start.Format("20060102"),
		sanitizePathComponent(application.Description),
		organizer,
	)

	file := fmt.Sprintf("[%s]", backup.CreatedAt.Format("20060102"))
	if comment != "" {
		file += "_" + sanitizePathComponent(comment)
	}
	file += ".tar.gz"

	return path.Join(
		s.config.Archive.BaseFolderPath,
		fmt.Sprintf("%d", start.Year()),
		folder,
		file,
	)
}

func sanitizePathComponent(component string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		return r
	}, component)
}
