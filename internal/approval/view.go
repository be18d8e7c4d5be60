package approval

// Page sizes used by the presentation surfaces.
const (
	TablePageSize = 10
	GridPageSize  = 12
)

// View owns a record collection and the filter state presenting it. Every
// change to the collection, facet, search text or category returns to page 1.
type View[T Record] struct {
	records  []T
	filtered []T
	state    FilterState
	pageSize int
}

// NewView builds a view with default filter state.
func NewView[T Record](records []T, pageSize int) *View[T] {
	if pageSize <= 0 {
		pageSize = TablePageSize
	}
	v := &View[T]{records: records, pageSize: pageSize, state: DefaultFilterState()}
	v.refilter()
	return v
}

// SetRecords replaces the collection and resets the filter state.
func (v *View[T]) SetRecords(records []T) {
	v.records = records
	v.state = DefaultFilterState()
	v.refilter()
}

// SetFacet switches the status tab.
func (v *View[T]) SetFacet(f Facet) {
	v.state.Facet = f
	v.state.Page = 1
	v.refilter()
}

// SetSearch updates the search text.
func (v *View[T]) SetSearch(text string) {
	v.state.Search = text
	v.state.Page = 1
	v.refilter()
}

// SetCategory updates the category selector.
func (v *View[T]) SetCategory(category string) {
	v.state.Category = category
	v.state.Page = 1
	v.refilter()
}

// Apply replaces facet, search and category at once, keeping the requested
// page only when none of them changed.
func (v *View[T]) Apply(state FilterState) {
	if state.Facet == "" {
		state.Facet = FacetAll
	}
	page := state.Page
	if state.Facet != v.state.Facet || state.Search != v.state.Search || state.Category != v.state.Category {
		page = 1
	}
	v.state = state
	v.refilter()
	v.SetPage(page)
}

// SetPage moves to the given page; values below 1 are treated as 1.
func (v *View[T]) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	v.state.Page = page
}

// State returns a copy of the current filter state.
func (v *View[T]) State() FilterState { return v.state }

// PageSize returns the fixed page size.
func (v *View[T]) PageSize() int { return v.pageSize }

// Page returns the visible slice.
func (v *View[T]) Page() []T {
	return Paginate(v.filtered, v.state.Page, v.pageSize)
}

// Filtered returns every record passing the current filters.
func (v *View[T]) Filtered() []T { return v.filtered }

// Pages returns the number of pages for the filtered collection.
func (v *View[T]) Pages() int { return PageCount(len(v.filtered), v.pageSize) }

// Counts summarizes the whole collection, independent of filters.
func (v *View[T]) Counts() Counts { return ComputeCounts(v.records) }

func (v *View[T]) refilter() {
	v.filtered = ApplyFilters(v.records, v.state)
}
