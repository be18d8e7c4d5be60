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

type categoryRepository interface {
	List(ctx context.Context, filter models.CategoryFilter) ([]models.Category, int, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	CountCourses(ctx context.Context, id string) (int, error)
}

// CategoryRequest is the payload for creating or renaming a category.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=500"`
}

// CategoryService manages course categories.
type CategoryService struct {
	repo      categoryRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCategoryService constructs the service.
func NewCategoryService(repo categoryRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CategoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns categories with pagination metadata.
func (s *CategoryService) List(ctx context.Context, filter models.CategoryFilter) ([]models.Category, *models.Pagination, error) {
	categories, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return categories, &models.Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: approval.PageCount(total, size)}, nil
}

// Get returns a single category.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

// Create adds a category with a unique name.
func (s *CategoryService) Create(ctx context.Context, req CategoryRequest, actorID string, meta models.RequestMeta) (*models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	if err := s.ensureUniqueName(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{Name: req.Name, Description: strings.TrimSpace(req.Description)}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}

	s.changed(ctx, actorID, category.ID, nil, category, meta)
	return category, nil
}

// Update renames or re-describes a category.
func (s *CategoryService) Update(ctx context.Context, id string, req CategoryRequest, actorID string, meta models.RequestMeta) (*models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.Name, id); err != nil {
		return nil, err
	}

	before := *category
	category.Name = req.Name
	category.Description = strings.TrimSpace(req.Description)
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}

	s.changed(ctx, actorID, id, &before, category, meta)
	return category, nil
}

// Delete removes a category that no course references.
func (s *CategoryService) Delete(ctx context.Context, id string, actorID string, meta models.RequestMeta) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountCourses(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "category is still used by courses")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}

	s.changed(ctx, actorID, id, category, nil, meta)
	return nil
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "category name already exists")
	}
	return nil
}

func (s *CategoryService) changed(ctx context.Context, actorID, id string, before, after *models.Category, meta models.RequestMeta) {
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionCategoryChange,
		Resource:   "categories",
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
