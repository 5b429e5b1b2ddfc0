// Package query turns view parameters into the request parameters a Scale
// list endpoint expects.
package query

import (
	"net/url"
	"strconv"

	"github.com/altinukshini/scale-tui/internal/viewstate"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 25
	DefaultOrder    = "-last_modified"
)

// Pagination selects how an endpoint pages its results.
type Pagination int

const (
	// PageNumber sends page and page_size.
	PageNumber Pagination = iota
	// Offset sends offset and limit.
	Offset
	// Unpaged sends neither.
	Unpaged
)

// Endpoint describes one list endpoint.
type Endpoint struct {
	Path       string
	Pagination Pagination
	PageSize   int
	// Order is the default sort. Nil means DefaultOrder; NoOrder disables
	// sorting entirely for endpoints that do not accept it.
	Order   []string
	NoOrder bool
	// Rename maps a view parameter to the backend's name for it.
	Rename map[string]string
	// Omit lists view parameters that are never sent.
	Omit []string
}

// Build converts view parameters into request parameters. Defaults apply only
// to keys that are entirely unset; a present value, even an invalid one such
// as page_size=0, is sent unchanged.
func (e Endpoint) Build(p viewstate.Params) url.Values {
	q := url.Values{}
	omit := make(map[string]bool, len(e.Omit))
	for _, k := range e.Omit {
		omit[k] = true
	}

	for _, k := range p.Keys() {
		switch {
		case omit[k], k == "page", k == "page_size":
			continue
		case k == "order":
			if !e.NoOrder {
				order := p.Sort("order").Strings()
				if len(order) == 0 {
					// Unparseable, e.g. a bare "-": the backend rejects it.
					order = p.Values("order")
				}
				for _, v := range order {
					q.Add("order", v)
				}
			}
			continue
		}
		name := k
		if r, ok := e.Rename[k]; ok {
			name = r
		}
		for _, v := range p.Values(k) {
			q.Add(name, v)
		}
	}

	if !e.NoOrder && !q.Has("order") {
		order := e.Order
		if order == nil {
			order = []string{DefaultOrder}
		}
		for _, v := range order {
			q.Add("order", v)
		}
	}

	e.paginate(p, q)
	return q
}

func (e Endpoint) paginate(p viewstate.Params, q url.Values) {
	if e.Pagination == Unpaged {
		return
	}
	page := strconv.Itoa(DefaultPage)
	if p.Has("page") {
		page = p.Get("page")
	}
	size := strconv.Itoa(e.pageSize())
	if p.Has("page_size") {
		size = p.Get("page_size")
	}

	switch e.Pagination {
	case PageNumber:
		q.Set("page", page)
		q.Set("page_size", size)
	case Offset:
		q.Set("limit", size)
		pn, err1 := strconv.Atoi(page)
		sz, err2 := strconv.Atoi(size)
		if err1 != nil || err2 != nil {
			// Malformed paging goes through as-is for the backend to reject.
			q.Set("page", page)
			return
		}
		// page=0 yields a negative offset; it is sent like any other
		// out-of-range page.
		q.Set("offset", strconv.Itoa((pn-1)*sz))
	}
}

func (e Endpoint) pageSize() int {
	if e.PageSize > 0 {
		return e.PageSize
	}
	return DefaultPageSize
}

// ParseOrder recovers the sort specification from built request parameters.
func ParseOrder(q url.Values) viewstate.SortSpec {
	return viewstate.ParseSort(q["order"])
}

// URL joins the endpoint path and the built query.
func (e Endpoint) URL(p viewstate.Params) string {
	q := e.Build(p)
	if len(q) == 0 {
		return e.Path
	}
	return e.Path + "?" + q.Encode()
}
