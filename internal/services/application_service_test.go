// internal/services/application_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
)

func TestSubmitCreatesPendingApplication(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())

	application, err := svc.Submit(context.Background(), &SubmitApplicationRequest{
		Description:         "Weekend build event",
		MinecraftVersion:    "1.20.4",
		RequestedPeriod:     14,
		ApplicantDiscordID:  "applicant-1",
		OrganizerDiscordID:  "organizer-1",
		PanelUserDiscordIDs: []string{"user-a", "user-b", "user-a"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusPending, application.Status)
	assert.Nil(t, application.StartDate)
	assert.Nil(t, application.PterodactylServerID)
	// duplicate grantee IDs collapse to one association
	require.Len(t, application.PanelUsers, 2)

	var userCount int64
	require.NoError(t, db.Model(&models.PanelUser{}).Count(&userCount).Error)
	assert.Equal(t, int64(2), userCount)
}

func TestSubmitReusesExistingPanelUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())

	existing := &models.PanelUser{DiscordUserID: "user-a", PterodactylUsername: "alice"}
	require.NoError(t, db.Create(existing).Error)

	application, err := svc.Submit(context.Background(), &SubmitApplicationRequest{
		Description:         "Second rental",
		MinecraftVersion:    "1.20.4",
		RequestedPeriod:     7,
		ApplicantDiscordID:  "applicant-1",
		OrganizerDiscordID:  "organizer-1",
		PanelUserDiscordIDs: []string{"user-a"},
	})
	require.NoError(t, err)

	require.Len(t, application.PanelUsers, 1)
	assert.Equal(t, existing.ID, application.PanelUsers[0].PanelUserID)
	assert.Equal(t, "alice", application.PanelUsers[0].PanelUser.PterodactylUsername)
}

func TestSubmitValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())

	cases := []struct {
		name string
		req  SubmitApplicationRequest
	}{
		{"missing description", SubmitApplicationRequest{
			MinecraftVersion:    "1.20.4",
			RequestedPeriod:     7,
			ApplicantDiscordID:  "a",
			OrganizerDiscordID:  "o",
			PanelUserDiscordIDs: []string{"u"},
		}},
		{"zero period", SubmitApplicationRequest{
			Description:         "test",
			MinecraftVersion:    "1.20.4",
			ApplicantDiscordID:  "a",
			OrganizerDiscordID:  "o",
			PanelUserDiscordIDs: []string{"u"},
		}},
		{"no panel users", SubmitApplicationRequest{
			Description:        "test",
			MinecraftVersion:   "1.20.4",
			RequestedPeriod:    7,
			ApplicantDiscordID: "a",
			OrganizerDiscordID: "o",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), &tc.req)
			assert.Error(t, err)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Application{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestApproveProvisioningSetsCredentials(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())
	application := seedApplication(t, db, models.ApplicationStatusPending, "user-a", "user-b")

	err := svc.ApproveProvisioning(context.Background(), application.ID, []string{"alice", "bob"})
	require.NoError(t, err)

	reloaded, err := svc.Get(context.Background(), application.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.PanelUsers, 2)

	byDiscord := make(map[string]models.PanelUser)
	for _, apu := range reloaded.PanelUsers {
		byDiscord[apu.PanelUser.DiscordUserID] = apu.PanelUser
	}
	assert.Equal(t, "alice", byDiscord["user-a"].PterodactylUsername)
	assert.Equal(t, "alice@panel.test", byDiscord["user-a"].PterodactylEmail)
	assert.Equal(t, "bob", byDiscord["user-b"].PterodactylUsername)

	// credentials alone do not activate the rental
	assert.Equal(t, models.ApplicationStatusPending, reloaded.Status)
}

func TestApproveProvisioningUsernameCountMismatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())
	application := seedApplication(t, db, models.ApplicationStatusPending, "user-a", "user-b")

	err := svc.ApproveProvisioning(context.Background(), application.ID, []string{"alice"})
	assert.ErrorIs(t, err, ErrUsernameCountMismatch)

	reloaded, err := svc.Get(context.Background(), application.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, reloaded.Status)
	assert.Empty(t, reloaded.PanelUsers[0].PanelUser.PterodactylUsername)
}

func TestApproveProvisioningRequiresPending(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())
	application := seedApplication(t, db, models.ApplicationStatusActive, "user-a")

	err := svc.ApproveProvisioning(context.Background(), application.ID, []string{"alice"})
	assert.ErrorIs(t, err, ErrApplicationNotPending)
}

func TestReject(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())
	application := seedApplication(t, db, models.ApplicationStatusPending, "user-a")

	require.NoError(t, svc.Reject(context.Background(), application.ID))

	reloaded, err := svc.Get(context.Background(), application.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, reloaded.Status)

	// terminal: rejecting again fails
	assert.ErrorIs(t, svc.Reject(context.Background(), application.ID), ErrApplicationNotPending)
}

func TestRejectRequiresPending(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())
	application := seedApplication(t, db, models.ApplicationStatusActive, "user-a")

	err := svc.Reject(context.Background(), application.ID)
	assert.ErrorIs(t, err, ErrApplicationNotPending)
}

func TestGetNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())

	_, err := svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApplicationService(db, testConfig())

	seedApplication(t, db, models.ApplicationStatusPending, "user-a")
	seedApplication(t, db, models.ApplicationStatusActive, "user-b")
	seedApplication(t, db, models.ApplicationStatusActive, "user-c")
	seedApplication(t, db, models.ApplicationStatusNeedsBackup, "user-a")

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingApplications)
	assert.Equal(t, int64(2), stats.ActiveRentals)
	assert.Equal(t, int64(1), stats.AwaitingReturn)
	assert.Equal(t, int64(4), stats.TotalApplications)
	assert.Equal(t, int64(3), stats.RegisteredUsers)
}
