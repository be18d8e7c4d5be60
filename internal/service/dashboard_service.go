package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/internal/dto"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type roleCounter interface {
	CountByRole(ctx context.Context) ([]models.RoleCount, error)
}

type categoryCounter interface {
	Count(ctx context.Context) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL     time.Duration
	RecentLimit  int
	GridPageSize int
}

// DashboardService orchestrates composition of dashboard payloads.
type DashboardService struct {
	users      roleCounter
	courses    courseLister
	categories categoryCounter
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
	cfg        DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users      roleCounter
	Courses    courseLister
	Categories categoryCounter
	Cache      *CacheService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.GridPageSize <= 0 {
		cfg.GridPageSize = approval.GridPageSize
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:      params.Users,
		courses:    params.Courses,
		categories: params.Categories,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		cfg:        cfg,
	}
}

// Admin returns the admin summary and whether it came from cache.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	var cached dto.AdminDashboardResponse
	if hit, err := s.cache.Get(ctx, cacheKeyAdminDashboard, &cached); err == nil && hit {
		return &cached, true, nil
	}

	users, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}
	categories, err := s.categories.Count(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count categories")
	}
	courses, err := loadCourses(ctx, s.courses, s.metrics, models.CourseQuery{})
	if err != nil {
		return nil, false, err
	}

	pending := approval.ApplyFilters(courses, approval.FilterState{Facet: approval.FacetPending})
	summary := &dto.AdminDashboardResponse{
		Users:         users,
		Courses:       approval.ComputeCounts(courses),
		Categories:    categories,
		RecentPending: approval.Paginate(pending, 1, s.cfg.RecentLimit),
		GeneratedAt:   s.now(),
	}

	if err := s.cache.Set(ctx, cacheKeyAdminDashboard, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKeyAdminDashboard), zap.Error(err))
	}
	return summary, false, nil
}

// Instructor summarises the courses owned by instructorID.
func (s *DashboardService) Instructor(ctx context.Context, instructorID string) (*dto.InstructorDashboardResponse, error) {
	if instructorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "instructor id is required")
	}
	courses, err := loadCourses(ctx, s.courses, s.metrics, models.CourseQuery{InstructorID: instructorID})
	if err != nil {
		return nil, err
	}
	return &dto.InstructorDashboardResponse{
		Courses:     approval.ComputeCounts(courses),
		Recent:      approval.Paginate(courses, 1, s.cfg.RecentLimit),
		GeneratedAt: s.now(),
	}, nil
}

// Student returns per-category counts and the first grid page of approved courses.
func (s *DashboardService) Student(ctx context.Context) (*dto.StudentDashboardResponse, error) {
	courses, err := loadCourses(ctx, s.courses, s.metrics, models.CourseQuery{ApprovedOnly: true})
	if err != nil {
		return nil, err
	}
	approved := approval.ApplyFilters(courses, approval.FilterState{Facet: approval.FacetApproved})

	perCategory := map[string]int{}
	for _, c := range approved {
		name := c.CategoryName
		if name == "" {
			name = "Uncategorized"
		}
		perCategory[name]++
	}
	categories := make([]dto.CategoryCourseCount, 0, len(perCategory))
	for name, count := range perCategory {
		categories = append(categories, dto.CategoryCourseCount{Category: name, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Category < categories[j].Category
	})

	return &dto.StudentDashboardResponse{
		Categories: categories,
		Courses:    approval.Paginate(approved, 1, s.cfg.GridPageSize),
		Pagination: models.Pagination{
			Page:       1,
			PageSize:   s.cfg.GridPageSize,
			TotalCount: len(approved),
			TotalPages: approval.PageCount(len(approved), s.cfg.GridPageSize),
		},
		GeneratedAt: s.now(),
	}, nil
}
