package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/pkg/lmsclient"
)

type stubSource struct {
	courses []lmsclient.Course
	err     error
	token   string
}

func (s *stubSource) ListCourses(_ context.Context, session lmsclient.Session) ([]lmsclient.Course, error) {
	s.token = session.Token
	return s.courses, s.err
}

func boolPtr(v bool) *bool { return &v }

func sampleCourses() []lmsclient.Course {
	return []lmsclient.Course{
		{ID: "1", Title: "Go Basics", CategoryName: "Programming", IsApproved: boolPtr(true),
			CreatedAt: "2024-01-01T10:00:00Z", UpdatedAt: "2024-01-01T10:01:00Z"},
		{ID: "2", Title: "Watercolour", CategoryName: "Art", IsApproved: boolPtr(false),
			CreatedAt: "2024-01-01T10:00:00Z", UpdatedAt: "2024-01-01T10:00:05Z"},
		{ID: "3", Title: "SQL", CategoryName: "Programming",
			CreatedAt: "not a date", UpdatedAt: ""},
	}
}

func TestRunReportTable(t *testing.T) {
	src := &stubSource{courses: sampleCourses()}
	var out bytes.Buffer

	err := runReport(context.Background(), src, reportOptions{status: "pending", page: 1, pageSize: 10, output: "table", token: "tok"}, &out, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "tok", src.token)
	body := out.String()
	assert.Contains(t, body, "pending=2 approved=1 rejected=0 total=3")
	assert.Contains(t, body, "status=PENDING matched=2 page=1/1")
	assert.Contains(t, body, "Watercolour")
	assert.NotContains(t, body, "Go Basics")
}

func TestRunReportJSONPagination(t *testing.T) {
	src := &stubSource{courses: sampleCourses()}
	var out bytes.Buffer

	err := runReport(context.Background(), src, reportOptions{status: "ALL", page: 2, pageSize: 2, output: "json"}, &out, zap.NewNop())
	require.NoError(t, err)

	var rep report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, 3, rep.Matched)
	assert.Equal(t, 2, rep.Pages)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "3", rep.Rows[0].ID)
	assert.Equal(t, approval.StatusPending, rep.Rows[0].Status)
}

func TestRunReportOutOfRangePage(t *testing.T) {
	var out bytes.Buffer

	err := runReport(context.Background(), &stubSource{courses: sampleCourses()}, reportOptions{page: 9, pageSize: 10, output: "table"}, &out, zap.NewNop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no courses on this page")
}

func TestRunReportErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runReport(context.Background(), &stubSource{}, reportOptions{page: 1, output: "xml"}, &out, zap.NewNop()))
	assert.Error(t, runReport(context.Background(), &stubSource{}, reportOptions{page: 0, output: "table"}, &out, zap.NewNop()))

	boom := errors.New("upstream down")
	err := runReport(context.Background(), &stubSource{err: boom}, reportOptions{page: 1, output: "table"}, &out, zap.NewNop())
	assert.ErrorIs(t, err, boom)
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"base-url", "token", "status", "search", "category", "page", "page-size", "output"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
