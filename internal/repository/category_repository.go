package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-api/internal/models"
)

// CategoryRepository handles persistence for course categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new repository instance.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns categories ordered by name with their course counts.
func (r *CategoryRepository) List(ctx context.Context, filter models.CategoryFilter) ([]models.Category, int, error) {
	base := "FROM categories cat WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(cat.name) LIKE $%d OR LOWER(cat.description) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT cat.id, cat.name, cat.description, (SELECT COUNT(*) FROM courses c WHERE c.category_id = cat.id) AS course_count, cat.created_at, cat.updated_at %s ORDER BY cat.name ASC LIMIT %d OFFSET %d", base, size, offset)
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	return categories, total, nil
}

// FindByID returns a category by id.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT cat.id, cat.name, cat.description, (SELECT COUNT(*) FROM courses c WHERE c.category_id = cat.id) AS course_count, cat.created_at, cat.updated_at FROM categories cat WHERE cat.id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

// ExistsByName checks case-insensitive uniqueness of the category name.
func (r *CategoryRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM categories WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check category name: %w", err)
	}
	return true, nil
}

// Count returns the number of categories.
func (r *CategoryRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM categories`); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return total, nil
}

// Create persists a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now

	const query = `INSERT INTO categories (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update modifies a category.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category record.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// CountCourses returns number of courses referencing the category.
func (r *CategoryRepository) CountCourses(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM courses WHERE category_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count category courses: %w", err)
	}
	return count, nil
}
