package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DestinationHandler handles the destination catalogue and guide listing
type DestinationHandler struct {
	destinations DestinationAPI
	logger       *logrus.Logger
}

// NewDestinationHandler creates a new DestinationHandler
func NewDestinationHandler(destinations DestinationAPI, logger *logrus.Logger) *DestinationHandler {
	return &DestinationHandler{destinations: destinations, logger: logger}
}

// ListDestinations handles GET /api/v1/destinations
func (h *DestinationHandler) ListDestinations(c *gin.Context) {
	filter := models.DestinationFilter{
		Country:  strings.TrimSpace(c.Query("country")),
		Category: models.DestinationCategory(strings.ToLower(strings.TrimSpace(c.Query("category")))),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     paginationQuery(c),
	}

	var ok bool
	if filter.MinPrice, ok = priceQuery(c, "min_price"); !ok {
		return
	}
	if filter.MaxPrice, ok = priceQuery(c, "max_price"); !ok {
		return
	}

	page, err := h.destinations.ListDestinations(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetDestination handles GET /api/v1/destinations/:id
func (h *DestinationHandler) GetDestination(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	destination, err := h.destinations.GetDestination(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, destination)
}

// CreateDestination handles POST /api/v1/destinations
func (h *DestinationHandler) CreateDestination(c *gin.Context) {
	var req models.CreateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	destination, err := h.destinations.CreateDestination(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, destination)
}

// UpdateDestination handles PATCH /api/v1/destinations/:id
func (h *DestinationHandler) UpdateDestination(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	destination, err := h.destinations.UpdateDestination(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, destination)
}

// DeleteDestination handles DELETE /api/v1/destinations/:id
func (h *DestinationHandler) DeleteDestination(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.destinations.DeleteDestination(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Destination deleted"})
}

// priceQuery parses an optional decimal query parameter, writing a 400 when malformed
func priceQuery(c *gin.Context, name string) (*decimal.Decimal, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		badRequest(c, "Invalid "+name)
		return nil, false
	}
	return &price, true
}
