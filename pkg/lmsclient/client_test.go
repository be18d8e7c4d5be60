package lmsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/approval"
)

func TestListCoursesWalksPages(t *testing.T) {
	var authHeaders []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/courses", r.URL.Path)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var data []Course
		if page == 1 {
			for i := 0; i < fetchPageSize; i++ {
				data = append(data, Course{ID: "p1-" + strconv.Itoa(i)})
			}
		} else {
			data = []Course{{ID: "last"}}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":       data,
			"pagination": map[string]int{"page": page, "page_size": fetchPageSize, "total_count": fetchPageSize + 1},
		})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL + "/api/v1/"}, srv.Client(), nil)
	courses, err := client.ListCourses(context.Background(), Session{Token: "tok"})
	require.NoError(t, err)
	assert.Len(t, courses, fetchPageSize+1)
	assert.Equal(t, "last", courses[len(courses)-1].ID)
	assert.Equal(t, []string{"Bearer tok", "Bearer tok"}, authHeaders)
}

func TestListCoursesPropagatesAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL}, srv.Client(), nil)
	_, err := client.ListCourses(context.Background(), Session{})
	assert.Error(t, err)
}

func TestCourseApprovalInputIsLenient(t *testing.T) {
	f := false
	c := Course{IsApproved: &f, CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:30Z"}
	assert.Equal(t, approval.StatusRejected, approval.Classify(c.ApprovalInput()))

	c.UpdatedAt = "yesterday-ish"
	in := c.ApprovalInput()
	assert.True(t, in.UpdatedAt.IsZero())
	assert.Equal(t, approval.StatusPending, approval.Classify(in))

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC), parseTimestamp("2024-01-01 00:00:05"))
}
