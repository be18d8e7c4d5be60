package dto

import (
	"time"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/internal/models"
)

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Users         []models.RoleCount `json:"users"`
	Courses       approval.Counts    `json:"courses"`
	Categories    int                `json:"categories"`
	RecentPending []models.Course    `json:"recent_pending"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// InstructorDashboardResponse summarises the instructor's own catalog.
type InstructorDashboardResponse struct {
	Courses     approval.Counts `json:"courses"`
	Recent      []models.Course `json:"recent"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// CategoryCourseCount is the number of approved courses in a category.
type CategoryCourseCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// StudentDashboardResponse is the first grid page of the approved catalog.
type StudentDashboardResponse struct {
	Categories  []CategoryCourseCount `json:"categories"`
	Courses     []models.Course       `json:"courses"`
	Pagination  models.Pagination     `json:"pagination"`
	GeneratedAt time.Time             `json:"generated_at"`
}
