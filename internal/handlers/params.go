package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safarihub/booking-backend/internal/models"
)

// idParam parses a positive integer path parameter, writing a 400 when it is not one
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// paginationQuery reads page and per_page, clamping anything out of range
func paginationQuery(c *gin.Context) models.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	return models.NewPagination(page, perPage)
}
