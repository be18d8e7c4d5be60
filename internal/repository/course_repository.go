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

const courseSelect = `SELECT c.id, c.title, c.description, c.category_id, COALESCE(cat.name, '') AS category_name, c.instructor_id, COALESCE(u.full_name, '') AS instructor_name, c.level, c.price, c.thumbnail_url, c.is_approved, c.created_at, c.updated_at FROM courses c LEFT JOIN categories cat ON cat.id = c.category_id LEFT JOIN users u ON u.id = c.instructor_id`

// CourseRepository handles persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListAll returns every course matching the query, newest first. Approval
// filtering happens in memory because the status is derived.
func (r *CourseRepository) ListAll(ctx context.Context, q models.CourseQuery) ([]models.Course, error) {
	var conditions []string
	var args []interface{}

	if q.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("c.category_id = $%d", len(args)+1))
		args = append(args, q.CategoryID)
	}
	if q.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("c.instructor_id = $%d", len(args)+1))
		args = append(args, q.InstructorID)
	}
	if q.ApprovedOnly {
		conditions = append(conditions, "c.is_approved = TRUE")
	}

	query := courseSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.id ASC"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID returns a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := courseSelect + ` WHERE c.id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create persists a new course with an unset approval flag.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = course.CreatedAt
	course.IsApproved = nil

	const query = `INSERT INTO courses (id, title, description, category_id, instructor_id, level, price, thumbnail_url, is_approved, created_at, updated_at) VALUES (:id, :title, :description, :category_id, :instructor_id, :level, :price, :thumbnail_url, :is_approved, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies the editable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, category_id = :category_id, level = :level, price = :price, thumbnail_url = :thumbnail_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SetApproval records a review decision.
func (r *CourseRepository) SetApproval(ctx context.Context, id string, approved bool, at time.Time) error {
	const query = `UPDATE courses SET is_approved = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, approved, at)
	if err != nil {
		return fmt.Errorf("set course approval: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a course record.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
