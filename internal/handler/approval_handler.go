package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/middleware"
	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/service"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

type approvalService interface {
	Queue(ctx context.Context, filter models.CourseFilter) (*models.CourseList, error)
	Approve(ctx context.Context, actor *models.JWTClaims, id string, meta models.RequestMeta) (*models.Course, error)
	Reject(ctx context.Context, actor *models.JWTClaims, id string, meta models.RequestMeta) (*models.Course, error)
	Export(ctx context.Context, filter models.CourseFilter, format service.ExportFormat) (*service.ExportFile, error)
}

// ApprovalHandler serves the admin course review queue.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(svc approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// Queue godoc
// @Summary Course review queue
// @Description Admin table over every course with status counts in meta.counts
// @Tags Course Approval
// @Produce json
// @Param status query string false "PENDING, APPROVED, REJECTED or ALL"
// @Param search query string false "Search text"
// @Param category query string false "Category name"
// @Param page query int false "Page number"
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *ApprovalHandler) Queue(c *gin.Context) {
	list, err := h.service.Queue(c.Request.Context(), courseFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCourseList(c, list)
}

// Approve godoc
// @Summary Approve course
// @Tags Course Approval
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/courses/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject course
// @Tags Course Approval
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/courses/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

type decision func(ctx context.Context, actor *models.JWTClaims, id string, meta models.RequestMeta) (*models.Course, error)

func (h *ApprovalHandler) decide(c *gin.Context, fn decision) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	course, err := fn(c.Request.Context(), claims, c.Param("id"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Export godoc
// @Summary Export review queue
// @Description Renders every course matching the filters, across all pages
// @Tags Course Approval
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param status query string false "PENDING, APPROVED, REJECTED or ALL"
// @Param search query string false "Search text"
// @Param category query string false "Category name"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/courses/export [get]
func (h *ApprovalHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(service.ExportCSV)))))
	if format != service.ExportCSV && format != service.ExportPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), courseFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	middleware.SetMeta(c, "rows", file.Rows)
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
