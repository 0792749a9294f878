// internal/handlers/admin.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/services"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/utils"
)

// AdminHandler exposes the operator workflow: approval, rejection, backup
// selection, and return processing.
type AdminHandler struct {
	applicationService *services.ApplicationService
	assignmentService  *services.AssignmentService
	backupService      *services.BackupService
}

func NewAdminHandler(applicationService *services.ApplicationService, assignmentService *services.AssignmentService, backupService *services.BackupService) *AdminHandler {
	return &AdminHandler{
		applicationService: applicationService,
		assignmentService:  assignmentService,
		backupService:      backupService,
	}
}

type approveRequest struct {
	Usernames []string `json:"usernames" validate:"required,min=1,dive,required"`
}

type processReturnRequest struct {
	BackupID string `json:"backup_id" validate:"required"`
	Comment  string `json:"comment" validate:"max=100"`
}

// POST /admin/applications/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	applicationID, ok := parseApplicationID(c)
	if !ok {
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	ctx := c.Request.Context()
	if err := h.applicationService.ApproveProvisioning(ctx, applicationID, req.Usernames); err != nil {
		respondWorkflowError(c, err)
		return
	}

	application, err := h.assignmentService.AssignServer(ctx, applicationID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"application": application})
}

// POST /admin/applications/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	applicationID, ok := parseApplicationID(c)
	if !ok {
		return
	}

	if err := h.applicationService.Reject(c.Request.Context(), applicationID); err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Application rejected"})
}

// GET /admin/returns
func (h *AdminHandler) ListReturns(c *gin.Context) {
	applications, err := h.applicationService.ListAwaitingReturn(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, gin.H{"applications": applications})
}

// GET /admin/applications/:id/backups
func (h *AdminHandler) ListBackups(c *gin.Context) {
	applicationID, ok := parseApplicationID(c)
	if !ok {
		return
	}

	backups, err := h.backupService.BackupOptions(c.Request.Context(), applicationID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"backups": backups})
}

// POST /admin/applications/:id/backups/:backupId/lock
func (h *AdminHandler) LockBackup(c *gin.Context) {
	applicationID, ok := parseApplicationID(c)
	if !ok {
		return
	}

	err := h.backupService.LockBackup(c.Request.Context(), applicationID, c.Param("backupId"))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Backup locked"})
}

// POST /admin/applications/:id/return
func (h *AdminHandler) ProcessReturn(c *gin.Context) {
	applicationID, ok := parseApplicationID(c)
	if !ok {
		return
	}

	var req processReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	record, err := h.backupService.ProcessServerReturn(c.Request.Context(), applicationID, req.BackupID, req.Comment)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"backup_record": record})
}

// GET /admin/status
func (h *AdminHandler) Status(c *gin.Context) {
	stats, err := h.applicationService.Stats(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}
	utils.SuccessResponse(c, gin.H{"stats": stats})
}

// respondWorkflowError maps service errors to HTTP status codes.
func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrApplicationNotFound):
		utils.NotFoundResponse(c, "Application")
	case errors.Is(err, services.ErrBackupNotFound):
		utils.NotFoundResponse(c, "Backup")
	case errors.Is(err, services.ErrServerNotFound):
		utils.NotFoundResponse(c, "Server")
	case errors.Is(err, services.ErrApplicationNotPending),
		errors.Is(err, services.ErrNotAwaitingReturn),
		errors.Is(err, services.ErrAlreadyAssigned):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrUsernameCountMismatch),
		errors.Is(err, services.ErrServerNotAssigned):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrNoCapacity):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "NO_CAPACITY", err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
