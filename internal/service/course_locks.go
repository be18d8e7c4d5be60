package service

import (
	"sync"

	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

// CourseLocks allows one destructive action per course at a time. A second
// action on a busy course fails immediately instead of waiting.
type CourseLocks struct {
	inflight sync.Map
}

// NewCourseLocks constructs an empty lock set.
func NewCourseLocks() *CourseLocks {
	return &CourseLocks{}
}

// Acquire marks the course busy. The returned release func must be called
// once the action completes.
func (l *CourseLocks) Acquire(courseID string) (func(), error) {
	if _, busy := l.inflight.LoadOrStore(courseID, struct{}{}); busy {
		return nil, appErrors.Clone(appErrors.ErrActionInProgress, "another action on this course is in progress")
	}
	return func() { l.inflight.Delete(courseID) }, nil
}

// Busy reports whether an action on the course is underway.
func (l *CourseLocks) Busy(courseID string) bool {
	_, busy := l.inflight.Load(courseID)
	return busy
}
