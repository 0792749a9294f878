// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/archive"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/config"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/discord"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/handlers"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/middleware"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/pterodactyl"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/services"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/utils"
)

// Services bundles the wired service layer so main can run the background
// scanner alongside the HTTP server.
type Services struct {
	Applications  *services.ApplicationService
	Assignments   *services.AssignmentService
	Backups       *services.BackupService
	Reminders     *services.ReminderService
	Notifications *services.NotificationService
}

func BuildServices(db *gorm.DB, cfg *config.Config) (*Services, error) {
	panelClient := pterodactyl.NewClient(cfg.Pterodactyl.APIURL, cfg.Pterodactyl.APIKey)
	discordClient := discord.NewClient(cfg.Discord.BotToken)
	archiver, err := archive.NewS3Archiver(cfg.Archive)
	if err != nil {
		return nil, err
	}

	notificationService := services.NewNotificationService(discordClient, cfg)
	applicationService := services.NewApplicationService(db, cfg)
	assignmentService := services.NewAssignmentService(db, panelClient, discordClient, notificationService, cfg)
	backupService := services.NewBackupService(db, panelClient, archiver, assignmentService, notificationService, cfg)
	reminderService := services.NewReminderService(db, notificationService, cfg)

	return &Services{
		Applications:  applicationService,
		Assignments:   assignmentService,
		Backups:       backupService,
		Reminders:     reminderService,
		Notifications: notificationService,
	}, nil
}

func Initialize(svcs *Services, cfg *config.Config) *gin.Engine {
	applicationHandler := handlers.NewApplicationHandler(svcs.Applications)
	adminHandler := handlers.NewAdminHandler(svcs.Applications, svcs.Assignments, svcs.Backups)
	authHandler := handlers.NewAuthHandler(cfg)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
		}

		applications := v1.Group("/applications")
		{
			applications.POST("", applicationHandler.Submit)
			applications.GET("", applicationHandler.List)
			applications.GET("/:id", applicationHandler.Get)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AdminRequired())
		{
			admin.GET("/status", adminHandler.Status)
			admin.GET("/returns", adminHandler.ListReturns)
			admin.POST("/applications/:id/approve", adminHandler.Approve)
			admin.POST("/applications/:id/reject", adminHandler.Reject)
			admin.GET("/applications/:id/backups", adminHandler.ListBackups)
			admin.POST("/applications/:id/backups/:backupId/lock", adminHandler.LockBackup)
			admin.POST("/applications/:id/return", adminHandler.ProcessReturn)
		}
	}

	return r
}
