package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/middleware"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ProfileHandler handles traveler and guide profile endpoints
type ProfileHandler struct {
	profiles ProfileAPI
	logger   *logrus.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profiles ProfileAPI, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// GetTraveler handles GET /api/v1/travelers/:id
func (h *ProfileHandler) GetTraveler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	traveler, err := h.profiles.GetTraveler(c.Request.Context(), middleware.MustGetIdentity(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"traveler": traveler})
}

// UpdateTraveler handles PATCH /api/v1/travelers/:id
func (h *ProfileHandler) UpdateTraveler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateTravelerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	traveler, err := h.profiles.UpdateTraveler(c.Request.Context(), middleware.MustGetIdentity(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Traveler profile updated",
		"traveler": traveler,
	})
}

// ListGuides handles GET /api/v1/guides
func (h *ProfileHandler) ListGuides(c *gin.Context) {
	filter := models.GuideFilter{
		Languages: models.SplitLanguages(c.Query("languages")),
		Search:    strings.TrimSpace(c.Query("search")),
		Page:      paginationQuery(c),
	}

	page, err := h.profiles.ListGuides(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetGuide handles GET /api/v1/guides/:id
func (h *ProfileHandler) GetGuide(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	guide, err := h.profiles.GetGuide(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"guide": guide})
}

// UpdateGuide handles PUT /api/v1/guides/:id
func (h *ProfileHandler) UpdateGuide(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	guide, err := h.profiles.UpdateGuide(c.Request.Context(), middleware.MustGetIdentity(c), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Guide profile updated",
		"guide":   guide,
	})
}
