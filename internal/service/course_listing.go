package service

import (
	"context"
	"time"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type courseLister interface {
	ListAll(ctx context.Context, q models.CourseQuery) ([]models.Course, error)
}

// loadCourses fetches the collection and attaches derived statuses.
func loadCourses(ctx context.Context, repo courseLister, metrics *MetricsService, q models.CourseQuery) ([]models.Course, error) {
	start := time.Now()
	courses, err := repo.ListAll(ctx, q)
	metrics.ObserveDBQuery("courses_list_all", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	for i := range courses {
		courses[i] = courses[i].WithStatus()
	}
	if q == (models.CourseQuery{}) {
		metrics.ObserveCourseCounts(approval.ComputeCounts(courses))
	}
	return courses, nil
}

// pageCourses runs the approval view over the collection and returns the requested page.
func pageCourses(courses []models.Course, filter models.CourseFilter, pageSize int) *models.CourseList {
	state := filter.State()
	view := approval.NewView(courses, pageSize)
	view.SetFacet(state.Facet)
	view.SetSearch(state.Search)
	view.SetCategory(state.Category)
	view.SetPage(state.Page)

	items := view.Page()
	return &models.CourseList{
		Items:  items,
		Counts: view.Counts(),
		Pagination: models.Pagination{
			Page:       view.State().Page,
			PageSize:   view.PageSize(),
			TotalCount: len(view.Filtered()),
			TotalPages: view.Pages(),
		},
	}
}
