package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/export"
)

type approvalRepository interface {
	courseLister
	FindByID(ctx context.Context, id string) (*models.Course, error)
	SetApproval(ctx context.Context, id string, approved bool, at time.Time) error
}

// ExportFormat names a rendered queue export.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportFile is a rendered export ready to send as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ApprovalConfig tunes the review queue.
type ApprovalConfig struct {
	TablePageSize int
}

// ApprovalService runs the admin review queue.
type ApprovalService struct {
	repo    approvalRepository
	audit   auditRecorder
	cache   *CacheService
	metrics *MetricsService
	locks   *CourseLocks
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	cfg     ApprovalConfig
	now     func() time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// NewApprovalService constructs the service. Nil renderers fall back to the defaults.
func NewApprovalService(repo approvalRepository, audit auditRecorder, cache *CacheService, metrics *MetricsService, locks *CourseLocks, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger, cfg ApprovalConfig) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewCourseLocks()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if cfg.TablePageSize <= 0 {
		cfg.TablePageSize = approval.TablePageSize
	}
	return &ApprovalService{
		repo:    repo,
		audit:   audit,
		cache:   cache,
		metrics: metrics,
		locks:   locks,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Queue returns one admin table page over every course.
func (s *ApprovalService) Queue(ctx context.Context, filter models.CourseFilter) (*models.CourseList, error) {
	courses, err := loadCourses(ctx, s.repo, s.metrics, filter.CourseQuery)
	if err != nil {
		return nil, err
	}
	return pageCourses(courses, filter, s.cfg.TablePageSize), nil
}

// Approve marks the course approved.
func (s *ApprovalService) Approve(ctx context.Context, actor *models.JWTClaims, id string, meta models.RequestMeta) (*models.Course, error) {
	return s.decide(ctx, actor, id, true, meta)
}

// Reject marks the course rejected. A rejection recorded within the rejection
// window of the course's creation still reads as PENDING.
func (s *ApprovalService) Reject(ctx context.Context, actor *models.JWTClaims, id string, meta models.RequestMeta) (*models.Course, error) {
	return s.decide(ctx, actor, id, false, meta)
}

func (s *ApprovalService) decide(ctx context.Context, actor *models.JWTClaims, id string, approved bool, meta models.RequestMeta) (*models.Course, error) {
	action, auditAction := "reject", models.AuditActionCourseReject
	if approved {
		action, auditAction = "approve", models.AuditActionCourseApprove
	}

	release, err := s.locks.Acquire(id)
	if err != nil {
		s.metrics.RecordApprovalAction(action, "busy")
		return nil, err
	}
	defer release()

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.metrics.RecordApprovalAction(action, "error")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	before := course.WithStatus()

	at := s.now()
	if err := s.repo.SetApproval(ctx, id, approved, at); err != nil {
		s.metrics.RecordApprovalAction(action, "error")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s course", action))
	}

	course.IsApproved = &approved
	course.UpdatedAt = at
	after := course.WithStatus()

	oldValues, _ := json.Marshal(map[string]interface{}{"is_approved": before.IsApproved, "status": before.Status})
	newValues, _ := json.Marshal(map[string]interface{}{"is_approved": approved, "status": after.Status})
	recordAudit(ctx, s.audit, s.logger, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     auditAction,
		Resource:   "courses",
		ResourceID: &id,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	})
	_ = s.cache.Invalidate(ctx, cachePatternDashboards)
	s.metrics.RecordApprovalAction(action, "ok")

	s.logger.Info("course reviewed",
		zap.String("course_id", id),
		zap.String("action", action),
		zap.String("status", string(after.Status)),
		zap.String("actor", actor.UserID),
	)
	return &after, nil
}

// Export renders every course passing the filter, ignoring pagination. The
// route records the export in the audit trail.
func (s *ApprovalService) Export(ctx context.Context, filter models.CourseFilter, format ExportFormat) (*ExportFile, error) {
	format = ExportFormat(strings.ToLower(string(format)))
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	courses, err := loadCourses(ctx, s.repo, s.metrics, filter.CourseQuery)
	if err != nil {
		return nil, err
	}
	rows := approval.ApplyFilters(courses, filter.State())
	dataset := courseDataset(rows)

	file := &ExportFile{Rows: len(rows)}
	stamp := s.now().Format("20060102-150405")
	switch format {
	case ExportPDF:
		file.Body, err = s.pdf.Render(dataset, "Course review queue")
		file.ContentType = s.pdf.ContentType()
	default:
		file.Body, err = s.csv.Render(dataset)
		file.ContentType = s.csv.ContentType()
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	file.Filename = fmt.Sprintf("course-queue-%s.%s", stamp, format)
	return file, nil
}

var courseExportHeaders = []string{"ID", "Title", "Category", "Instructor", "Status", "Created", "Updated"}

func courseDataset(courses []models.Course) export.Dataset {
	rows := make([]map[string]string, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, map[string]string{
			"ID":         c.ID,
			"Title":      c.Title,
			"Category":   c.CategoryName,
			"Instructor": c.InstructorName,
			"Status":     string(c.Status),
			"Created":    c.CreatedAt.Format(time.RFC3339),
			"Updated":    c.UpdatedAt.Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: courseExportHeaders, Rows: rows}
}
