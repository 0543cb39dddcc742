package listview

// DefaultPageSize is the page size used when a caller supplies an invalid one.
const DefaultPageSize = 5

// Page is one rendered page of a filtered collection. CurrentPage is always
// within [1, TotalPages] and TotalItems is derived from the input, never
// stored independently.
type Page[T any] struct {
	Items        []T
	CurrentPage  int
	TotalPages   int
	TotalItems   int
	ItemsPerPage int
}

// Paginate slices records into the requested page. currentPage is silently
// clamped into [1, totalPages]; itemsPerPage <= 0 falls back to
// DefaultPageSize rather than failing.
func Paginate[T any](records []T, itemsPerPage, currentPage int) Page[T] {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultPageSize
	}

	totalItems := len(records)
	totalPages := (totalItems + itemsPerPage - 1) / itemsPerPage
	if totalPages < 1 {
		totalPages = 1
	}

	page := currentPage
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * itemsPerPage
	end := start + itemsPerPage
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return Page[T]{
		Items:        records[start:end],
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: itemsPerPage,
	}
}

// Pager tracks the current page and page size for one screen. The requested
// page is re-clamped against the collection on every Resolve call, so a
// filter change that shrinks the set falls back to the last valid page.
type Pager struct {
	page int
	size int
}

// NewPager returns a pager on page 1 with the given page size.
// itemsPerPage <= 0 falls back to DefaultPageSize.
func NewPager(itemsPerPage int) *Pager {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultPageSize
	}
	return &Pager{page: 1, size: itemsPerPage}
}

// GoToPage requests page n. Values below 1 clamp to 1; the upper bound is
// clamped against the collection on Resolve.
func (p *Pager) GoToPage(n int) {
	if n < 1 {
		n = 1
	}
	p.page = n
}

// ChangeItemsPerPage sets a new page size and resets to page 1, since the
// old page no longer identifies the same rows. An invalid size keeps the
// prior value unchanged.
func (p *Pager) ChangeItemsPerPage(n int) {
	if n <= 0 {
		return
	}
	p.size = n
	p.page = 1
}

// ItemsPerPage returns the current page size.
func (p *Pager) ItemsPerPage() int { return p.size }

// Resolve paginates records at the pager's current position and stores the
// clamped page back, so subsequent navigation starts from a valid page.
func Resolve[T any](p *Pager, records []T) Page[T] {
	page := Paginate(records, p.size, p.page)
	p.page = page.CurrentPage
	return page
}
