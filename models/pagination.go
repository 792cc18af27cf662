package models

// Pagination is supplied by the backend and trusted as-is.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalRecords int `json:"totalRecords"`
	Limit        int `json:"limit"`
}

// DefaultPagination is what a list page shows before its first response.
func DefaultPagination(limit int) Pagination {
	return Pagination{CurrentPage: 1, TotalPages: 1, Limit: limit}
}

func (p Pagination) PrevDisabled() bool { return p.CurrentPage == 1 }

func (p Pagination) NextDisabled() bool { return p.CurrentPage == p.TotalPages }

func (p Pagination) ShowControls() bool { return p.TotalPages > 1 }

func (p Pagination) PrevPage() int { return p.CurrentPage - 1 }

func (p Pagination) NextPage() int { return p.CurrentPage + 1 }
