// internal/services/testutil_test.go
package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/config"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/pterodactyl"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// The in-memory database lives per connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Application{},
		&models.PanelUser{},
		&models.ApplicationPanelUser{},
		&models.BackupRecord{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Pterodactyl: config.PterodactylConfig{
			APIURL:      "http://panel.test",
			APIKey:      "test-key",
			EmailDomain: "panel.test",
		},
		Discord: config.DiscordConfig{
			GuildIDs:    []string{"guild-1"},
			PanelRoleID: "role-1",
		},
		Archive: config.ArchiveConfig{
			BaseFolderPath: "server-backups",
		},
		Reminders: config.ReminderConfig{
			DaysBeforeExpiry: []int{3, 1},
			ChannelID:        "channel-1",
			IntervalMinutes:  60,
		},
	}
}

// seedApplication inserts an application with one grantee per discord ID.
func seedApplication(t *testing.T, db *gorm.DB, status models.ApplicationStatus, discordIDs ...string) *models.Application {
	t.Helper()

	application := &models.Application{
		Status:             status,
		ApplicantDiscordID: "applicant-1",
		OrganizerDiscordID: "organizer-1234",
		Description:        "Weekend build event",
		MinecraftVersion:   "1.20.4",
		RequestedPeriod:    14,
	}
	require.NoError(t, db.Create(application).Error)

	for _, discordID := range discordIDs {
		panelUser := &models.PanelUser{DiscordUserID: discordID}
		require.NoError(t, db.Where(models.PanelUser{DiscordUserID: discordID}).
			FirstOrCreate(panelUser).Error)
		require.NoError(t, db.Create(&models.ApplicationPanelUser{
			ApplicationID: application.ID,
			PanelUserID:   panelUser.ID,
		}).Error)
	}

	require.NoError(t, db.Preload("PanelUsers.PanelUser").
		First(application, application.ID).Error)
	return application
}

// fakePanel is an in-memory stand-in for the panel control plane. Zero
// values succeed; tests set the err fields to force failures.
type fakePanel struct {
	servers []pterodactyl.Server
	backups map[int][]pterodactyl.Backup

	nextUserID int
	created    []pterodactyl.User

	accessGrants  [][2]int
	accessRevokes [][2]int
	reinstalled   []int
	locked        []string
	unlocked      []string

	serversErr   error
	backupsErr   error
	createErr    error
	grantErr     error
	reinstallErr error
	downloadErr  error
}

func newFakePanel() *fakePanel {
	return &fakePanel{
		backups:    make(map[int][]pterodactyl.Backup),
		nextUserID: 100,
	}
}

func (p *fakePanel) Servers(ctx context.Context) ([]pterodactyl.Server, error) {
	if p.serversErr != nil {
		return nil, p.serversErr
	}
	return p.servers, nil
}

func (p *fakePanel) ServerBackups(ctx context.Context, serverID int) ([]pterodactyl.Backup, error) {
	if p.backupsErr != nil {
		return nil, p.backupsErr
	}
	return p.backups[serverID], nil
}

func (p *fakePanel) LockBackup(ctx context.Context, serverID int, backupID string) error {
	p.locked = append(p.locked, backupID)
	return nil
}

func (p *fakePanel) UnlockBackup(ctx context.Context, serverID int, backupID string) error {
	p.unlocked = append(p.unlocked, backupID)
	return nil
}

func (p *fakePanel) ReinstallServer(ctx context.Context, serverID int) error {
	if p.reinstallErr != nil {
		return p.reinstallErr
	}
	p.reinstalled = append(p.reinstalled, serverID)
	return nil
}

func (p *fakePanel) CreateUser(ctx context.Context, username, email string) (pterodactyl.User, error) {
	if p.createErr != nil {
		return pterodactyl.User{}, p.createErr
	}
	p.nextUserID++
	user := pterodactyl.User{ID: p.nextUserID, Username: username, Email: email}
	p.created = append(p.created, user)
	return user, nil
}

func (p *fakePanel) AddServerUser(ctx context.Context, serverID, userID int) error {
	if p.grantErr != nil {
		return p.grantErr
	}
	p.accessGrants = append(p.accessGrants, [2]int{serverID, userID})
	return nil
}

func (p *fakePanel) RemoveServerUser(ctx context.Context, serverID, userID int) error {
	p.accessRevokes = append(p.accessRevokes, [2]int{serverID, userID})
	return nil
}

func (p *fakePanel) BackupDownloadURL(ctx context.Context, serverID int, backupID string) (string, error) {
	if p.downloadErr != nil {
		return "", p.downloadErr
	}
	return "http://signed.panel.test/download/" + backupID, nil
}

type sentMessage struct {
	Target  string
	Content string
}

// fakeGateway records direct and channel messages.
type fakeGateway struct {
	direct  []sentMessage
	channel []sentMessage
	sendErr error
}

func (g *fakeGateway) SendDirect(ctx context.Context, userID, content string) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	g.direct = append(g.direct, sentMessage{Target: userID, Content: content})
	return nil
}

func (g *fakeGateway) SendToChannel(ctx context.Context, channelID, content string) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	g.channel = append(g.channel, sentMessage{Target: channelID, Content: content})
	return nil
}

// fakeRoles records role grants.
type fakeRoles struct {
	grants   []string
	grantErr error
}

func (r *fakeRoles) AddGuildRole(ctx context.Context, guildID, userID, roleID string) error {
	if r.grantErr != nil {
		return r.grantErr
	}
	r.grants = append(r.grants, userID)
	return nil
}

// fakeArchiver records archive copies.
type fakeArchiver struct {
	copies  []sentMessage
	copyErr error
}

func (a *fakeArchiver) Copy(ctx context.Context, sourceRef, destPath string) error {
	if a.copyErr != nil {
		return a.copyErr
	}
	a.copies = append(a.copies, sentMessage{Target: sourceRef, Content: destPath})
	return nil
}
