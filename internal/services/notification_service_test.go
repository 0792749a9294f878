// internal/services/notification_service_test.go
package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
)

func TestSendExpiredSummaryTruncatesMultibyteDescriptions(t *testing.T) {
	gateway := &fakeGateway{}
	svc := NewNotificationService(gateway, testConfig())

	long := strings.Repeat("建", 60)
	applications := []models.Application{
		{ID: 1, Description: long},
		{ID: 2, Description: "short"},
	}

	svc.SendExpiredSummary(context.Background(), applications)

	require.Len(t, gateway.channel, 1)
	summary := gateway.channel[0].Content
	assert.True(t, utf8.ValidString(summary))
	assert.Contains(t, summary, strings.Repeat("建", 50)+"...")
	assert.NotContains(t, summary, strings.Repeat("建", 51))
	assert.Contains(t, summary, "short")
}
