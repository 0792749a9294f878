// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/config"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/pterodactyl"
)

// NotificationService composes workflow messages and delivers them through
// the gateway. Every send is best-effort: failures are logged and never
// propagated, so a broken notification channel cannot corrupt workflow state.
type NotificationService struct {
	gateway NotificationGateway
	config  *config.Config
}

func NewNotificationService(gateway NotificationGateway, config *config.Config) *NotificationService {
	return &NotificationService{
		gateway: gateway,
		config:  config,
	}
}

// Assignment notifications

func (s *NotificationService) SendAssignmentNotifications(ctx context.Context, application *models.Application, server pterodactyl.Server) {
	organizerMsg := fmt.Sprintf(
		"🎉 **Server Assignment Complete**\n\n"+
			"Application ID: %d\n"+
			"Assigned server: **%s** (%s)\n"+
			"Description: %s\n"+
			"Period: %d days\n\n"+
			"Access the server panel to start setting up.",
		application.ID, server.Name, server.Identifier,
		application.Description, application.RequestedPeriod)
	s.sendDirect(ctx, application.OrganizerDiscordID, organizerMsg)

	for _, apu := range application.PanelUsers {
		granteeMsg := fmt.Sprintf(
			"🎉 **Server Access Granted**\n\n"+
				"Application ID: %d\n"+
				"Server: **%s** (%s)\n"+
				"Your panel username: %s\n\n"+
				"You now have access to the server panel.",
			application.ID, server.Name, server.Identifier,
			apu.PanelUser.PterodactylUsername)
		s.sendDirect(ctx, apu.PanelUser.DiscordUserID, granteeMsg)
	}
}

// Return notifications

func (s *NotificationService) SendReturnNotifications(ctx context.Context, application *models.Application, archivePath string) {
	serverID := ""
	if application.PterodactylServerID != nil {
		serverID = strconv.Itoa(*application.PterodactylServerID)
	}

	organizerMsg := fmt.Sprintf(
		"📦 **Server Return Complete**\n\n"+
			"Application ID: %d\n"+
			"Server: %s\n"+
			"Description: %s\n\n"+
			"The backup was archived to:\n`%s`\n\n"+
			"Thank you for using the service.",
		application.ID, serverID, application.Description, archivePath)
	s.sendDirect(ctx, application.OrganizerDiscordID, organizerMsg)

	for _, apu := range application.PanelUsers {
		granteeMsg := fmt.Sprintf(
			"📦 **Server Returned**\n\n"+
				"The server for application ID %d has been returned and your "+
				"panel access has been removed.\n\n"+
				"Thank you for using the service.",
			application.ID)
		s.sendDirect(ctx, apu.PanelUser.DiscordUserID, granteeMsg)
	}
}

// Reminder notifications

func (s *NotificationService) SendExpirationReminder(ctx context.Context, application *models.Application, daysUntilExpiry int) {
	urgent := daysUntilExpiry <= 1

	header := "🕐 **Server Expiry Reminder**"
	footer := "Consider requesting an extension if you need more time."
	if urgent {
		header = "🚨 **Server Expiry Reminder (URGENT)**"
		footer = "The server will be queued for return once it expires."
	}

	endDate := "unknown"
	if application.EndDate != nil {
		endDate = application.EndDate.Format("2006-01-02 15:04")
	}
	serverID := "unassigned"
	if application.PterodactylServerID != nil {
		serverID = strconv.Itoa(*application.PterodactylServerID)
	}

	var grantees []string
	for _, apu := range application.PanelUsers {
		grantees = append(grantees, fmt.Sprintf("<@%s>", apu.PanelUser.DiscordUserID))
	}
	granteeList := "none"
	if len(grantees) > 0 {
		granteeList = strings.Join(grantees, ", ")
	}

	msg := fmt.Sprintf(
		"%s\n\n"+
			"Your server expires in **%d day(s)**.\n\n"+
			"Application ID: %d\n"+
			"Server: %s\n"+
			"Description: %s\n"+
			"Expires at: %s\n"+
			"Panel users: %s\n\n"+
			"%s",
		header, daysUntilExpiry, application.ID, serverID,
		application.Description, endDate, granteeList, footer)

	s.sendDirect(ctx, application.OrganizerDiscordID, msg)

	if s.config.Reminders.ChannelID != "" {
		mirror := fmt.Sprintf(
			"%s <@%s>'s server (application ID %d) expires in **%d day(s)**",
			header, application.OrganizerDiscordID, application.ID, daysUntilExpiry)
		s.sendToChannel(ctx, s.config.Reminders.ChannelID, mirror)
	}
}

// SendExpiredSummary posts a channel summary of newly expired applications.
func (s *NotificationService) SendExpiredSummary(ctx context.Context, applications []models.Application) {
	if s.config.Reminders.ChannelID == "" || len(applications) == 0 {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ **Expired Servers Detected**\n\n"+
		"%d server(s) have expired and are awaiting backup selection and return processing.\n",
		len(applications))

	for i, app := range applications {
		if i >= 10 {
			fmt.Fprintf(&sb, "…and %d more\n", len(applications)-i)
			break
		}
		serverID := "unassigned"
		if app.PterodactylServerID != nil {
			serverID = strconv.Itoa(*app.PterodactylServerID)
		}
		description := app.Description
		// truncate on runes so multibyte descriptions stay valid UTF-8
		if runes := []rune(description); len(runes) > 50 {
			description = string(runes[:50]) + "..."
		}
		fmt.Fprintf(&sb, "- Application ID %d | server %s | %s\n", app.ID, serverID, description)
	}

	s.sendToChannel(ctx, s.config.Reminders.ChannelID, sb.String())
}

func (s *NotificationService) sendDirect(ctx context.Context, userID, content string) {
	if err := s.gateway.SendDirect(ctx, userID, content); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to send direct message")
	}
}

func (s *NotificationService) sendToChannel(ctx context.Context, channelID, content string) {
	if err := s.gateway.SendToChannel(ctx, channelID, content); err != nil {
		logrus.WithError(err).WithField("channel_id", channelID).Warn("Failed to send channel message")
	}
}
