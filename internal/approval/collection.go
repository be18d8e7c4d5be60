package approval

import "strings"

// SearchFields are the free-text fields matched by the search box.
type SearchFields struct {
	Title       string
	Description string
	Category    string
	Owner       string
}

// Record is anything with an ambiguous approval flag.
type Record interface {
	RecordID() string
	ApprovalInput() Input
	SearchFields() SearchFields
}

// Counts tallies a collection by derived status.
type Counts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// FilterState drives a filtered view. Page is 1-based.
type FilterState struct {
	Facet    Facet  `json:"facet"`
	Search   string `json:"search"`
	Category string `json:"category"`
	Page     int    `json:"page"`
}

// DefaultFilterState shows every record from the first page.
func DefaultFilterState() FilterState {
	return FilterState{Facet: FacetAll, Page: 1}
}

// ClassifyAll derives a status for every record keyed by id.
func ClassifyAll[T Record](records []T) map[string]Status {
	out := make(map[string]Status, len(records))
	for _, r := range records {
		out[r.RecordID()] = Classify(r.ApprovalInput())
	}
	return out
}

// ComputeCounts tallies records by derived status in a single pass.
func ComputeCounts[T Record](records []T) Counts {
	var c Counts
	for _, r := range records {
		switch Classify(r.ApprovalInput()) {
		case StatusApproved:
			c.Approved++
		case StatusRejected:
			c.Rejected++
		default:
			c.Pending++
		}
	}
	c.Total = len(records)
	return c
}

// ApplyFilters keeps records matching the facet, the category and the search text,
// preserving input order. It never reorders and never mutates its input.
func ApplyFilters[T Record](records []T, state FilterState) []T {
	search := strings.ToLower(strings.TrimSpace(state.Search))
	category := strings.TrimSpace(state.Category)

	out := make([]T, 0, len(records))
	for _, r := range records {
		if !state.Facet.Matches(Classify(r.ApprovalInput())) {
			continue
		}
		fields := r.SearchFields()
		if category != "" && !strings.EqualFold(fields.Category, category) {
			continue
		}
		if search != "" && !matchesSearch(fields, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(fields SearchFields, needle string) bool {
	for _, hay := range []string{fields.Title, fields.Description, fields.Category, fields.Owner} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// Paginate returns the 1-based page of records. Pages outside the range yield an
// empty slice; callers are responsible for resetting page on filter changes.
func Paginate[T any](records []T, page, pageSize int) []T {
	if page < 1 || pageSize <= 0 {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(records) {
		return []T{}
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// PageCount returns ceil(total/pageSize); zero results mean zero pages.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
