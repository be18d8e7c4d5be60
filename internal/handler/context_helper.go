package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// requireClaims returns the caller's claims or writes a 401.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

// courseFilterFromQuery reads the shared listing parameters. Unknown status
// values fall back to ALL.
func courseFilterFromQuery(c *gin.Context) models.CourseFilter {
	mine, _ := strconv.ParseBool(c.Query("mine"))
	return models.CourseFilter{
		CourseQuery: models.CourseQuery{
			CategoryID:   strings.TrimSpace(c.Query("category_id")),
			InstructorID: strings.TrimSpace(c.Query("instructor_id")),
		},
		Facet:    approval.ParseFacet(c.Query("status")),
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Mine:     mine,
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	}
}

// respondCourseList renders a page with the collection counts under meta.counts.
func respondCourseList(c *gin.Context, list *models.CourseList) {
	middleware.SetMeta(c, "counts", list.Counts)
	pagination := list.Pagination
	response.JSON(c, http.StatusOK, list.Items, &pagination, middleware.ExtractMeta(c))
}
