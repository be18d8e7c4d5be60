package models

import "time"

// Category groups courses in the catalog.
type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CourseCount int       `db:"course_count" json:"course_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryFilter captures supported filters for listing categories.
type CategoryFilter struct {
	Search   string
	Page     int
	PageSize int
}
