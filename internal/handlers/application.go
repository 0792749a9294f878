// internal/handlers/application.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hinaplugin/discord-mcserver-wizard/internal/models"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/services"
	"github.com/hinaplugin/discord-mcserver-wizard/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
	}
}

// POST /applications
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req services.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	application, err := h.applicationService.Submit(c.Request.Context(), &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{"application": application})
}

// GET /applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	applicationID, ok := parseApplicationID(c)
	if !ok {
		return
	}

	application, err := h.applicationService.Get(c.Request.Context(), applicationID)
	if err != nil {
		if errors.Is(err, services.ErrApplicationNotFound) {
			utils.NotFoundResponse(c, "Application")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": application})
}

// GET /applications?status=PENDING
func (h *ApplicationHandler) List(c *gin.Context) {
	status := models.ApplicationStatus(c.DefaultQuery("status", string(models.ApplicationStatusPending)))
	switch status {
	case models.ApplicationStatusPending, models.ApplicationStatusActive,
		models.ApplicationStatusNeedsBackup, models.ApplicationStatusReturned,
		models.ApplicationStatusRejected:
	default:
		utils.BadRequestResponse(c, "Unknown status", nil)
		return
	}

	applications, err := h.applicationService.ListByStatus(c.Request.Context(), status)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"applications": applications})
}

func parseApplicationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application id", nil)
		return 0, false
	}
	return uint(id), true
}
