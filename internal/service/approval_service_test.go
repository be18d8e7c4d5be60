package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

func newTestApprovalService(repo *fakeCourseRepo, audit *mockAuditRepo, cache *CacheService, metrics *MetricsService, locks *CourseLocks, now time.Time) *ApprovalService {
	svc := NewApprovalService(repo, audit, cache, metrics, locks, nil, nil, nil, ApprovalConfig{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestApprovalServiceApprove(t *testing.T) {
	repo := &fakeCourseRepo{courses: seedCourses()}
	audit := &mockAuditRepo{}
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.items["dash:admin"] = []byte(`{}`)
	metrics := NewMetricsService()
	svc := newTestApprovalService(repo, audit, NewCacheService(cacheRepo, metrics, 0, nil, true), metrics, nil, baseTime.Add(time.Hour))

	c, err := svc.Approve(context.Background(), adminActor, "3", models.RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, c.Status)
	require.NotNil(t, repo.courses[2].IsApproved)
	assert.True(t, *repo.courses[2].IsApproved)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionCourseApprove, audit.logs[0].Action)
	assert.JSONEq(t, `{"is_approved":null,"status":"PENDING"}`, string(audit.logs[0].OldValues))
	assert.NotContains(t, cacheRepo.items, "dash:admin")
	assert.Equal(t, 1.0, metricValue(t, metrics.approvalActions.WithLabelValues("approve", "ok")))
}

func TestApprovalServiceRejectTiming(t *testing.T) {
	repo := &fakeCourseRepo{courses: []models.Course{course("early", "ins-1", nil, 0), course("late", "ins-1", nil, 0)}}
	audit := &mockAuditRepo{}

	early := newTestApprovalService(repo, audit, nil, nil, nil, baseTime.Add(5*time.Second))
	c, err := early.Reject(context.Background(), adminActor, "early", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, c.Status, "a rejection inside the window still reads as pending")

	late := newTestApprovalService(repo, audit, nil, nil, nil, baseTime.Add(11*time.Second))
	c, err = late.Reject(context.Background(), adminActor, "late", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, c.Status)
	assert.Equal(t, []string{models.AuditActionCourseReject, models.AuditActionCourseReject}, audit.actions())
}

func TestApprovalServiceNotFound(t *testing.T) {
	svc := newTestApprovalService(&fakeCourseRepo{}, &mockAuditRepo{}, nil, nil, nil, baseTime)
	_, err := svc.Approve(context.Background(), adminActor, "missing", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestApprovalServiceConcurrentActionRejected(t *testing.T) {
	repo := &fakeCourseRepo{
		courses: seedCourses(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	metrics := NewMetricsService()
	svc := newTestApprovalService(repo, &mockAuditRepo{}, nil, metrics, nil, baseTime.Add(time.Hour))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Approve(context.Background(), adminActor, "3", models.RequestMeta{})
		done <- err
	}()
	<-repo.entered

	_, err := svc.Reject(context.Background(), adminActor, "3", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrActionInProgress)

	close(repo.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1.0, metricValue(t, metrics.approvalActions.WithLabelValues("reject", "busy")))

	repo.entered = nil
	c, err := svc.Reject(context.Background(), adminActor, "3", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, c.Status)
}

func TestApprovalServiceQueueUsesTablePageSize(t *testing.T) {
	var courses []models.Course
	for i := 0; i < 23; i++ {
		courses = append(courses, course(fmt.Sprintf("c%02d", i), "ins-1", nil, 0))
	}
	courses[4].Title = "Advanced Go"
	svc := newTestApprovalService(&fakeCourseRepo{courses: courses}, &mockAuditRepo{}, nil, nil, nil, baseTime)

	list, err := svc.Queue(context.Background(), models.CourseFilter{PageSize: 50})
	require.NoError(t, err)
	assert.Len(t, list.Items, approval.TablePageSize)
	assert.Equal(t, 3, list.Pagination.TotalPages)

	list, err = svc.Queue(context.Background(), models.CourseFilter{Search: "advanced", Facet: approval.FacetPending})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "c04", list.Items[0].ID)
	assert.Equal(t, 23, list.Counts.Pending)
}

func TestApprovalServiceExportCSV(t *testing.T) {
	svc := newTestApprovalService(&fakeCourseRepo{courses: seedCourses()}, &mockAuditRepo{}, nil, nil, nil, baseTime)

	file, err := svc.Export(context.Background(), models.CourseFilter{Facet: approval.FacetPending, Page: 9}, "CSV")
	require.NoError(t, err)
	assert.Equal(t, 2, file.Rows)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	assert.Contains(t, file.ContentType, "text/csv")

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Title,Category,Instructor,Status,Created,Updated", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2,Course 2,Programming,Instructor ins-1,PENDING"))
}

func TestApprovalServiceExportPDFAndValidation(t *testing.T) {
	svc := newTestApprovalService(&fakeCourseRepo{courses: seedCourses()}, &mockAuditRepo{}, nil, nil, nil, baseTime)

	file, err := svc.Export(context.Background(), models.CourseFilter{}, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))

	_, err = svc.Export(context.Background(), models.CourseFilter{}, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
