package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type courseRepository interface {
	courseLister
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type categoryLookup interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

// CourseRequest is the payload for creating or editing a course. InstructorID
// is honoured for admins only.
type CourseRequest struct {
	Title        string             `json:"title" validate:"required,max=200"`
	Description  string             `json:"description" validate:"max=5000"`
	CategoryID   *string            `json:"category_id"`
	Level        models.CourseLevel `json:"level" validate:"required,oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Price        float64            `json:"price" validate:"gte=0"`
	ThumbnailURL string             `json:"thumbnail_url" validate:"omitempty,url"`
	InstructorID string             `json:"instructor_id"`
}

// CourseConfig tunes listing behaviour.
type CourseConfig struct {
	GridPageSize int
}

// CourseService implements the catalog use cases.
type CourseService struct {
	repo       courseRepository
	categories categoryLookup
	audit      auditRecorder
	cache      *CacheService
	metrics    *MetricsService
	locks      *CourseLocks
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        CourseConfig
}

// NewCourseService constructs the service.
func NewCourseService(repo courseRepository, categories categoryLookup, audit auditRecorder, cache *CacheService, metrics *MetricsService, locks *CourseLocks, validate *validator.Validate, logger *zap.Logger, cfg CourseConfig) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewCourseLocks()
	}
	if cfg.GridPageSize <= 0 {
		cfg.GridPageSize = approval.GridPageSize
	}
	return &CourseService{
		repo:       repo,
		categories: categories,
		audit:      audit,
		cache:      cache,
		metrics:    metrics,
		locks:      locks,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// List returns one page of the catalog as seen by the actor. Students and
// instructors browsing the catalog only see approved courses; instructors
// passing Mine see every course they own in any state.
func (s *CourseService) List(ctx context.Context, actor *models.JWTClaims, filter models.CourseFilter) (*models.CourseList, error) {
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleInstructor:
		if filter.Mine {
			filter.InstructorID = actor.UserID
			break
		}
		filter.ApprovedOnly = true
		filter.Facet = approval.FacetApproved
	default:
		filter.InstructorID = ""
		filter.ApprovedOnly = true
		filter.Facet = approval.FacetApproved
	}

	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = s.cfg.GridPageSize
	}

	courses, err := loadCourses(ctx, s.repo, s.metrics, filter.CourseQuery)
	if err != nil {
		return nil, err
	}
	return pageCourses(courses, filter, pageSize), nil
}

// Get returns a course. Unapproved courses are only visible to admins and their owner.
func (s *CourseService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Course, error) {
	course, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status != approval.StatusApproved && !canManage(actor, course) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// Create adds a course awaiting review.
func (s *CourseService) Create(ctx context.Context, actor *models.JWTClaims, req CourseRequest, meta models.RequestMeta) (*models.Course, error) {
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}

	instructorID := actor.UserID
	if actor.Role == models.RoleAdmin && req.InstructorID != "" {
		instructorID = req.InstructorID
	}

	course := &models.Course{
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		InstructorID: instructorID,
		Level:        req.Level,
		Price:        req.Price,
		ThumbnailURL: req.ThumbnailURL,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	created, err := s.find(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, actor, models.AuditActionCourseCreate, created.ID, nil, created, meta)
	return created, nil
}

// Update edits a course owned by the actor, or any course for admins.
func (s *CourseService) Update(ctx context.Context, actor *models.JWTClaims, id string, req CourseRequest, meta models.RequestMeta) (*models.Course, error) {
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	course, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, course) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner or an admin can edit this course")
	}

	before := *course
	course.Title = req.Title
	course.Description = req.Description
	course.CategoryID = req.CategoryID
	course.Level = req.Level
	course.Price = req.Price
	course.ThumbnailURL = req.ThumbnailURL
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, models.AuditActionCourseUpdate, id, &before, updated, meta)
	return updated, nil
}

// Delete removes a course owned by the actor, or any course for admins.
func (s *CourseService) Delete(ctx context.Context, actor *models.JWTClaims, id string, meta models.RequestMeta) error {
	release, err := s.locks.Acquire(id)
	if err != nil {
		return err
	}
	defer release()

	course, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, course) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner or an admin can delete this course")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.changed(ctx, actor, models.AuditActionCourseDelete, id, course, nil, meta)
	return nil
}

func (s *CourseService) find(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	withStatus := course.WithStatus()
	return &withStatus, nil
}

func (s *CourseService) validate(ctx context.Context, req *CourseRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.CategoryID != nil && strings.TrimSpace(*req.CategoryID) == "" {
		req.CategoryID = nil
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.CategoryID == nil || s.categories == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *req.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "category does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return nil
}

func (s *CourseService) changed(ctx context.Context, actor *models.JWTClaims, action, id string, before, after *models.Course, meta models.RequestMeta) {
	entry := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "courses",
		ResourceID: &id,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	recordAudit(ctx, s.audit, s.logger, entry)
	_ = s.cache.Invalidate(ctx, cachePatternDashboards)
}

func canManage(actor *models.JWTClaims, course *models.Course) bool {
	if actor == nil {
		return false
	}
	return actor.Role == models.RoleAdmin || actor.UserID == course.InstructorID
}
