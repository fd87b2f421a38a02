package utils

// Page describes one page of a list. It is derived fresh from the backing
// list on every request and never stored.
type Page struct {
	Number      int
	TotalPages  int
	Offset      int
	Limit       int
	HasPrevious bool
	HasNext     bool
}

// Paginate clamps page into [1, totalPages] and computes the slice window.
// An empty list yields a single empty page.
func Paginate(totalItems, page, pageSize int) Page {
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Page{
		Number:      page,
		TotalPages:  totalPages,
		Offset:      (page - 1) * pageSize,
		Limit:       pageSize,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}
