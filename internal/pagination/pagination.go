// Package pagination normalizes page parameters and builds list metadata.
package pagination

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Params is a normalized 1-based page request.
type Params struct {
	Page    int
	PerPage int
}

// NewParams clamps page to >= 1 and perPage to [1, MaxPerPage],
// substituting defaults for non-positive values.
func NewParams(page, perPage int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Params{Page: page, PerPage: perPage}
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Meta describes a page of results.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
	HasMore     bool  `json:"has_more"`
}

// NewMeta builds metadata for a page holding pageLen rows out of total.
// From and To stay nil when the page is empty.
func NewMeta(p Params, total int64, pageLen int) Meta {
	lastPage := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	meta := Meta{
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		Total:       total,
		LastPage:    lastPage,
		HasMore:     p.Page < lastPage,
	}
	if pageLen > 0 {
		from := p.Offset() + 1
		to := from + pageLen - 1
		meta.From = &from
		meta.To = &to
	}
	return meta
}
