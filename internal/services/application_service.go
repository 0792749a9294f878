// internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/config"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/database"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/lifecycle"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/utils"
)

type ApplicationService struct {
	db     *gorm.DB
	config *config.Config
}

type SubmitApplicationRequest struct {
	Description         string   `json:"description" validate:"required,max=500"`
	MinecraftVersion    string   `json:"minecraft_version" validate:"required,max=20"`
	RequestedPeriod     int      `json:"requested_period" validate:"required,gt=0"`
	ApplicantDiscordID  string   `json:"applicant_discord_id" validate:"required"`
	OrganizerDiscordID  string   `json:"organizer_discord_id" validate:"required"`
	PanelUserDiscordIDs []string `json:"panel_user_discord_ids" validate:"required,min=1,dive,required"`
}

type SystemStats struct {
	PendingApplications int64 `json:"pending_applications"`
	ActiveRentals       int64 `json:"active_rentals"`
	AwaitingReturn      int64 `json:"awaiting_return"`
	TotalApplications   int64 `json:"total_applications"`
	RegisteredUsers     int64 `json:"registered_users"`
}

func NewApplicationService(db *gorm.DB, config *config.Config) *ApplicationService {
	return &ApplicationService{
		db:     db,
		config: config,
	}
}

// Submit validates a rental request and records it as a PENDING application
// together with its grantee associations. Panel users are upserted lazily:
// a Discord user referenced for the first time gets a bare PanelUser row.
func (s *ApplicationService) Submit(ctx context.Context, req *SubmitApplicationRequest) (*models.Application, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	application := &models.Application{
		Status:             models.ApplicationStatusPending,
		ApplicantDiscordID: req.ApplicantDiscordID,
		OrganizerDiscordID: req.OrganizerDiscordID,
		Description:        req.Description,
		MinecraftVersion:   req.MinecraftVersion,
		RequestedPeriod:    req.RequestedPeriod,
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Create(application).Error; err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		seen := make(map[string]bool, len(req.PanelUserDiscordIDs))
		for _, discordID := range req.PanelUserDiscordIDs {
			if seen[discordID] {
				continue
			}
			seen[discordID] = true

			var panelUser models.PanelUser
			if err := tx.Where(models.PanelUser{DiscordUserID: discordID}).
				FirstOrCreate(&panelUser).Error; err != nil {
				return fmt.Errorf("failed to upsert panel user %s: %w", discordID, err)
			}

			association := &models.ApplicationPanelUser{
				ApplicationID: application.ID,
				PanelUserID:   panelUser.ID,
			}
			if err := tx.Create(association).Error; err != nil {
				return fmt.Errorf("failed to associate panel user %s: %w", discordID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"application_id": application.ID,
		"applicant":      req.ApplicantDiscordID,
	}).Info("New rental application submitted")

	return s.Get(ctx, application.ID)
}

// ApproveProvisioning validates the approval input and records the panel
// usernames and derived emails on the grantees. It is the validation half of
// approval: the caller runs server assignment afterwards, and the
// application only leaves PENDING when assignment succeeds.
func (s *ApplicationService) ApproveProvisioning(ctx context.Context, applicationID uint, usernames []string) error {
	application, err := s.Get(ctx, applicationID)
	if err != nil {
		return err
	}
	if application.Status != models.ApplicationStatusPending {
		return ErrApplicationNotPending
	}
	if len(usernames) != len(application.PanelUsers) {
		return fmt.Errorf("%w: %d usernames for %d panel users",
			ErrUsernameCountMismatch, len(usernames), len(application.PanelUsers))
	}

	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		for i, apu := range application.PanelUsers {
			username := usernames[i]
			email := fmt.Sprintf("%s@%s", username, s.config.Pterodactyl.EmailDomain)

			err := tx.Model(&models.PanelUser{}).
				Where("id = ?", apu.PanelUserID).
				Updates(map[string]interface{}{
					"pterodactyl_username": username,
					"pterodactyl_email":    email,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to update panel user %d: %w", apu.PanelUserID, err)
			}
		}
		return nil
	})
}

// Reject moves a pending application to the terminal REJECTED state.
func (s *ApplicationService) Reject(ctx context.Context, applicationID uint) error {
	application, err := s.Get(ctx, applicationID)
	if err != nil {
		return err
	}

	if err := lifecycle.Transition(application, models.ApplicationStatusRejected); err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return ErrApplicationNotPending
		}
		return err
	}

	if err := s.db.WithContext(ctx).Save(application).Error; err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	logrus.WithField("application_id", applicationID).Info("Application rejected")
	return nil
}

func (s *ApplicationService) Get(ctx context.Context, applicationID uint) (*models.Application, error) {
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

// ListByStatus returns applications with the given status, newest first.
func (s *ApplicationService) ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.Application, error) {
	var applications []models.Application
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Preload("PanelUsers.PanelUser").
		Order("created_at DESC").
		Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applications: %w", err)
	}
	return applications, nil
}

// ListAwaitingReturn returns NEEDS_BACKUP applications, longest-expired first.
func (s *ApplicationService) ListAwaitingReturn(ctx context.Context) ([]models.Application, error) {
	var applications []models.Application
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ApplicationStatusNeedsBackup).
		Preload("PanelUsers.PanelUser").
		Order("end_date ASC").
		Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applications: %w", err)
	}
	return applications, nil
}

func (s *ApplicationService) Stats(ctx context.Context) (*SystemStats, error) {
	db := s.db.WithContext(ctx)
	stats := &SystemStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.PendingApplications, db.Model(&models.Application{}).Where("status = ?", models.ApplicationStatusPending)},
		{&stats.ActiveRentals, db.Model(&models.Application{}).Where("status = ?", models.ApplicationStatusActive)},
		{&stats.AwaitingReturn, db.Model(&models.Application{}).Where("status = ?", models.ApplicationStatusNeedsBackup)},
		{&stats.TotalApplications, db.Model(&models.Application{})},
		{&stats.RegisteredUsers, db.Model(&models.PanelUser{})},
	}

	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}
	return stats, nil
}
