// Package approval derives a tri-state approval status from records whose backend
// flag is ambiguous, and projects filtered, paginated views over collections of them.
package approval

import (
	"strings"
	"time"
)

// Status is the derived approval classification. It is never persisted.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// RejectionWindow is how far updated_at must trail created_at before an
// explicitly unapproved record reads as rejected. Strictly greater than.
const RejectionWindow = 10 * time.Second

// Input carries the raw fields the classifier looks at.
type Input struct {
	Approved  *bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Classify maps raw approval fields to exactly one Status.
func Classify(in Input) Status {
	if in.Approved == nil {
		return StatusPending
	}
	if *in.Approved {
		return StatusApproved
	}
	if updateDelta(in) > RejectionWindow {
		return StatusRejected
	}
	return StatusPending
}

// updateDelta is zero whenever either timestamp is missing.
func updateDelta(in Input) time.Duration {
	if in.CreatedAt.IsZero() || in.UpdatedAt.IsZero() {
		return 0
	}
	return in.UpdatedAt.Sub(in.CreatedAt)
}

// Facet selects which derived status a view shows.
type Facet string

const (
	FacetAll      Facet = "ALL"
	FacetPending  Facet = Facet(StatusPending)
	FacetApproved Facet = Facet(StatusApproved)
	FacetRejected Facet = Facet(StatusRejected)
)

// ParseFacet normalises user input; anything unknown falls back to ALL.
func ParseFacet(raw string) Facet {
	switch Facet(strings.ToUpper(strings.TrimSpace(raw))) {
	case FacetPending:
		return FacetPending
	case FacetApproved:
		return FacetApproved
	case FacetRejected:
		return FacetRejected
	default:
		return FacetAll
	}
}

// Matches reports whether a status is visible under the facet.
func (f Facet) Matches(status Status) bool {
	if f == "" || f == FacetAll {
		return true
	}
	return Facet(status) == f
}
