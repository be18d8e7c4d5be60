package models

import (
	"time"

	"github.com/noah-isme/lms-api/internal/approval"
)

// CourseLevel is the advertised difficulty of a course.
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "BEGINNER"
	LevelIntermediate CourseLevel = "INTERMEDIATE"
	LevelAdvanced     CourseLevel = "ADVANCED"
)

// Course is a catalog entry owned by an instructor. IsApproved is nullable:
// nil means never reviewed. Status is derived on every read, never stored.
type Course struct {
	ID             string          `db:"id" json:"id"`
	Title          string          `db:"title" json:"title"`
	Description    string          `db:"description" json:"description"`
	CategoryID     *string         `db:"category_id" json:"category_id,omitempty"`
	CategoryName   string          `db:"category_name" json:"category_name"`
	InstructorID   string          `db:"instructor_id" json:"instructor_id"`
	InstructorName string          `db:"instructor_name" json:"instructor_name"`
	Level          CourseLevel     `db:"level" json:"level"`
	Price          float64         `db:"price" json:"price"`
	ThumbnailURL   string          `db:"thumbnail_url" json:"thumbnail_url"`
	IsApproved     *bool           `db:"is_approved" json:"is_approved"`
	Status         approval.Status `db:"-" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// RecordID implements approval.Record.
func (c Course) RecordID() string { return c.ID }

// ApprovalInput implements approval.Record.
func (c Course) ApprovalInput() approval.Input {
	return approval.Input{Approved: c.IsApproved, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// SearchFields implements approval.Record.
func (c Course) SearchFields() approval.SearchFields {
	return approval.SearchFields{
		Title:       c.Title,
		Description: c.Description,
		Category:    c.CategoryName,
		Owner:       c.InstructorName,
	}
}

// WithStatus returns the course with its derived status attached.
func (c Course) WithStatus() Course {
	c.Status = approval.Classify(c.ApprovalInput())
	return c
}

// CourseQuery narrows the collection at the database before the in-memory
// approval filters run.
type CourseQuery struct {
	CategoryID   string
	InstructorID string
	ApprovedOnly bool
}

// CourseFilter is the full listing request. Mine narrows an instructor's
// listing to their own courses.
type CourseFilter struct {
	CourseQuery
	Facet    approval.Facet
	Search   string
	Category string
	Mine     bool
	Page     int
	PageSize int
}

// State converts the request into approval filter state.
func (f CourseFilter) State() approval.FilterState {
	facet := f.Facet
	if facet == "" {
		facet = approval.FacetAll
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return approval.FilterState{Facet: facet, Search: f.Search, Category: f.Category, Page: page}
}

// CourseList is one page of a filtered course collection plus the status
// tally of the whole collection.
type CourseList struct {
	Items      []Course
	Counts     approval.Counts
	Pagination Pagination
}
