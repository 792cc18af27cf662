package views

import (
	"net/url"
	"strconv"

	"github.com/HARIOM-JHA01/addmy-partner/models"
)

// Pager renders Previous/Next links for a backend-paginated list. Params are
// kept on every link so a status filter survives paging.
type Pager struct {
	models.Pagination
	Path   string
	Params url.Values
}

func NewPager(p models.Pagination, path string, params url.Values) Pager {
	return Pager{Pagination: p, Path: path, Params: params}
}

func (p Pager) URL(page int) string {
	q := url.Values{}
	for k, v := range p.Params {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return p.Path + "?" + q.Encode()
}

func (p Pager) PrevURL() string { return p.URL(p.PrevPage()) }

func (p Pager) NextURL() string { return p.URL(p.NextPage()) }

// Modal is the chrome around a dialog; the body is page specific.
type Modal struct {
	Title    string
	CloseURL string
}
