package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/errors"
	"github.com/sintudecorators/contact-backend/internal/admission"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/services"
	"github.com/sintudecorators/contact-backend/types"
)

type AdminHandler struct {
	auth  AdminLoginService
	store SubmissionAdmin
}

func NewAdminHandler(auth AdminLoginService, store SubmissionAdmin) *AdminHandler {
	return &AdminHandler{auth: auth, store: store}
}

// LoginHandler godoc
// @Summary Admin login
// @Description Exchanges the admin credential pair for a signed, expiring token.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body types.LoginRequest true "Credentials"
// @Success 200 {object} types.LoginResponse "Token issued"
// @Failure 400 {object} types.ErrorResponse "Username and password required"
// @Failure 401 {object} types.ErrorResponse "Invalid credentials"
// @Failure 429 {object} types.ErrorResponse "Too many login attempts"
// @Router /admin/login [post]
func (h *AdminHandler) LoginHandler(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		_ = c.Error(errors.ValidationFailed("Username and password required", ""))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if stderrors.Is(err, services.ErrInvalidCredentials) {
			logger.GetLogger().Warnw("Admin login failed", "client_ip", c.ClientIP())
			_ = c.Error(errors.AuthenticationFailed("Invalid credentials"))
			return
		}
		logger.GetLogger().Errorw("Failed to issue admin token", "error", err)
		_ = c.Error(errors.InternalServerError("Failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, types.LoginResponse{
		Success: true,
		Message: "Authentication successful",
		Token:   token,
	})
}

// ListSubmissionsHandler godoc
// @Summary List contact submissions
// @Description Returns every stored submission, newest first.
// @Tags admin
// @Produce json
// @Success 200 {object} types.SubmissionListResponse "Submissions"
// @Failure 401 {object} types.ErrorResponse "Authentication required"
// @Failure 500 {object} types.ErrorResponse "Failed to fetch submissions"
// @Router /admin/submissions [get]
// @Security BearerAuth
func (h *AdminHandler) ListSubmissionsHandler(c *gin.Context) {
	subs, err := h.store.List(c.Request.Context())
	if err != nil {
		_ = c.Error(errors.NewDatabaseError(err, "Failed to fetch submissions"))
		return
	}

	c.JSON(http.StatusOK, types.SubmissionListResponse{
		Success:     true,
		Submissions: subs,
		Count:       len(subs),
	})
}

// DeleteSubmissionHandler godoc
// @Summary Delete a contact submission
// @Tags admin
// @Produce json
// @Param id path int true "Submission ID"
// @Success 200 {object} types.MessageResponse "Submission deleted"
// @Failure 400 {object} types.ErrorResponse "Invalid submission id"
// @Failure 401 {object} types.ErrorResponse "Authentication required"
// @Failure 404 {object} types.ErrorResponse "Submission not found"
// @Failure 500 {object} types.ErrorResponse "Failed to delete submission"
// @Router /admin/submissions/{id} [delete]
// @Security BearerAuth
func (h *AdminHandler) DeleteSubmissionHandler(c *gin.Context) {
	rawID := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(errors.ValidationFailed("Invalid submission id", "id must be a positive integer"))
		return
	}

	deleted, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(errors.NewDatabaseError(err, "Failed to delete submission"))
		return
	}
	if !deleted {
		_ = c.Error(errors.NotFound("Submission", id))
		return
	}

	logger.GetLogger().Infow("Submission deleted",
		"submission_id", id,
		"admin", c.GetString(admission.AdminUserKey))

	c.JSON(http.StatusOK, types.MessageResponse{
		Success: true,
		Message: "Submission deleted",
	})
}
