package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/middleware"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// AdminHandler handles admin-only endpoints
type AdminHandler struct {
	admin  AdminAPI
	logger *logrus.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin AdminAPI, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// Dashboard handles GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := models.UserFilter{
		Role: models.Role(c.Query("role")),
		Page: paginationQuery(c),
	}

	page, err := h.admin.ListUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// UpdateUser handles PUT /api/v1/admin/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	caller := middleware.MustGetIdentity(c)
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.admin.UpdateUser(c.Request.Context(), caller, id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"admin_user_id":  caller.UserID,
		"target_user_id": user.ID,
		"role":           user.Role,
		"is_active":      user.IsActive,
	}).Info("User updated by admin")

	c.JSON(http.StatusOK, user)
}
