// internal/services/assignment_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/config"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/lifecycle"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/pterodactyl"
)

// AssignmentService provisions panel resources for approved applications and
// tears them back down on return.
type AssignmentService struct {
	db            *gorm.DB
	panel         PanelClient
	roles         RoleGranter
	notifications *NotificationService
	config        *config.Config
	now           func() time.Time
}

func NewAssignmentService(db *gorm.DB, panel PanelClient, roles RoleGranter, notifications *NotificationService, config *config.Config) *AssignmentService {
	return &AssignmentService{
		db:            db,
		panel:         panel,
		roles:         roles,
		notifications: notifications,
		config:        config,
		now:           time.Now,
	}
}

// AssignServer picks a free panel server for a pending application, provisions
// panel accounts and server access for every grantee, and activates the
// rental. The database commit happens only after all required panel calls
// succeed; a failure before that leaves the application PENDING so the
// operation can be retried. Provisioned panel accounts are persisted as they
// are created and reused on retry.
func (s *AssignmentService) AssignServer(ctx context.Context, applicationID uint) (*models.Application, error) {
	application, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.PterodactylServerID != nil {
		return nil, ErrAlreadyAssigned
	}
	if application.Status != models.ApplicationStatusPending {
		return nil, ErrApplicationNotPending
	}

	server, err := s.pickAvailableServer(ctx)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"application_id": application.ID,
		"server_id":      server.ID,
		"identifier":     server.Identifier,
	})
	log.Info("Assigning server to application")

	for i := range application.PanelUsers {
		panelUser := &application.PanelUsers[i].PanelUser
		if err := s.provisionPanelUser(ctx, panelUser); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
		}
		if err := s.panel.AddServerUser(ctx, server.ID, *panelUser.PterodactylUserID); err != nil {
			return nil, fmt.Errorf("%w: grant access for %s: %v",
				ErrProvisioningFailed, panelUser.DiscordUserID, err)
		}
		s.grantDiscordRole(ctx, panelUser)
	}

	serverID := server.ID
	application.PterodactylServerID = &serverID
	if err := lifecycle.Activate(application, s.now()); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(application).Error; err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	log.WithField("end_date", application.EndDate).Info("Server assigned")
	s.notifications.SendAssignmentNotifications(ctx, application, *server)
	return application, nil
}

// RevokeServerAccess removes every grantee's panel access to the assigned
// server. Users listed in the exclusion config keep their access. Individual
// revocation failures are logged and skipped so one broken account does not
// block the teardown of the rest.
func (s *AssignmentService) RevokeServerAccess(ctx context.Context, application *models.Application) {
	if application.PterodactylServerID == nil {
		return
	}
	serverID := *application.PterodactylServerID

	for i := range application.PanelUsers {
		panelUser := &application.PanelUsers[i].PanelUser
		log := logrus.WithFields(logrus.Fields{
			"application_id": application.ID,
			"discord_user":   panelUser.DiscordUserID,
		})

		if s.isExcludedUser(panelUser.DiscordUserID) {
			log.Info("Skipping access revocation for excluded user")
			continue
		}
		if panelUser.PterodactylUserID == nil {
			continue
		}
		if err := s.panel.RemoveServerUser(ctx, serverID, *panelUser.PterodactylUserID); err != nil {
			log.WithError(err).Warn("Failed to revoke server access")
		}
	}
}

func (s *AssignmentService) loadApplication(ctx context.Context, applicationID uint) (*models.Application, error) {
	var application models.Application
	err := s.db.WithContext(ctx).
		Preload("PanelUsers.PanelUser").
		First(&application, applicationID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &application, nil
}

// pickAvailableServer returns the lowest-id panel server that is not
// suspended and not assigned to any active rental.
func (s *AssignmentService) pickAvailableServer(ctx context.Context) (*pterodactyl.Server, error) {
	servers, err := s.panel.Servers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list panel servers: %w", err)
	}

	var assigned []int
	err = s.db.WithContext(ctx).Model(&models.Application{}).
		Where("pterodactyl_server_id IS NOT NULL").
		Where("status IN ?", []models.ApplicationStatus{
			models.ApplicationStatusActive,
			models.ApplicationStatusNeedsBackup,
		}).
		Pluck("pterodactyl_server_id", &assigned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned servers: %w", err)
	}

	taken := make(map[int]bool, len(assigned))
	for _, id := range assigned {
		taken[id] = true
	}

	var candidates []pterodactyl.Server
	for _, server := range servers {
		if server.Suspended || taken[server.ID] {
			continue
		}
		candidates = append(candidates, server)
	}
	if len(candidates) == 0 {
		return nil, ErrNoCapacity
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return &candidates[0], nil
}

// provisionPanelUser creates a panel account for the grantee if one does not
// exist yet. The account id is persisted immediately so a later retry of the
// assignment never creates a duplicate account.
func (s *AssignmentService) provisionPanelUser(ctx context.Context, panelUser *models.PanelUser) error {
	if panelUser.PterodactylUserID != nil {
		return nil
	}

	user, err := s.panel.CreateUser(ctx, panelUser.PterodactylUsername, panelUser.PterodactylEmail)
	if err != nil {
		return fmt.Errorf("create panel account for %s: %w", panelUser.DiscordUserID, err)
	}

	panelUser.PterodactylUserID = &user.ID
	err = s.db.WithContext(ctx).Model(&models.PanelUser{}).
		Where("id = ?", panelUser.ID).
		Update("pterodactyl_user_id", user.ID).Error
	if err != nil {
		return fmt.Errorf("persist panel account id: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"discord_user":   panelUser.DiscordUserID,
		"panel_user_id":  user.ID,
		"panel_username": user.Username,
	}).Info("Created panel account")
	return nil
}

// grantDiscordRole gives the grantee the panel member role in every
// configured guild. Best effort: the flag is only set when at least one
// grant succeeded, so a later assignment retries the grant.
func (s *AssignmentService) grantDiscordRole(ctx context.Context, panelUser *models.PanelUser) {
	if panelUser.HasDiscordRole || s.config.Discord.PanelRoleID == "" {
		return
	}

	granted := false
	for _, guildID := range s.config.Discord.GuildIDs {
		err := s.roles.AddGuildRole(ctx, guildID, panelUser.DiscordUserID, s.config.Discord.PanelRoleID)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"discord_user": panelUser.DiscordUserID,
				"guild_id":     guildID,
			}).Warn("Failed to grant panel role")
			continue
		}
		granted = true
	}
	if !granted {
		return
	}

	panelUser.HasDiscordRole = true
	err := s.db.WithContext(ctx).Model(&models.PanelUser{}).
		Where("id = ?", panelUser.ID).
		Update("has_discord_role", true).Error
	if err != nil {
		logrus.WithError(err).Warn("Failed to persist role grant")
	}
}

func (s *AssignmentService) isExcludedUser(discordUserID string) bool {
	for _, excluded := range s.config.Discord.ExcludedUserIDs {
		if excluded == discordUserID {
			return true
		}
	}
	return false
}
