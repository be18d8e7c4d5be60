package lmsclient

import (
	"strings"
	"time"

	"github.com/noah-isme/lms-api/internal/approval"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Course is the wire shape of a course returned by the backend. Timestamps are
// kept raw so malformed values degrade instead of failing the whole decode.
type Course struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	CategoryName   string `json:"category_name"`
	InstructorName string `json:"instructor_name"`
	IsApproved     *bool  `json:"is_approved"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// RecordID implements approval.Record.
func (c Course) RecordID() string { return c.ID }

// ApprovalInput implements approval.Record.
func (c Course) ApprovalInput() approval.Input {
	return approval.Input{
		Approved:  c.IsApproved,
		CreatedAt: parseTimestamp(c.CreatedAt),
		UpdatedAt: parseTimestamp(c.UpdatedAt),
	}
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

// parseTimestamp returns the zero time for empty or unparseable input.
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
