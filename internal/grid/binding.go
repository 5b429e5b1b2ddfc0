// Package grid maps table events (sort, page, filter, row selection) onto a
// view's parameter store.
package grid

import (
	"strconv"
	"strings"

	"github.com/altinukshini/scale-tui/internal/viewstate"
)

// ViewAll is the filter choice that clears a filter.
const ViewAll = "VIEW ALL"

// ColumnSort is the sort state of one grid column, in priority order.
type ColumnSort struct {
	Field string
	Desc  bool
}

// Binding connects one grid to its store. Navigate is called with the detail
// route of a selected row.
type Binding struct {
	Store       *viewstate.Store
	DetailRoute func(id string) string
	Navigate    func(route string)

	actionPending bool
}

// NewBinding creates a binding.
func NewBinding(store *viewstate.Store, detailRoute func(id string) string, navigate func(string)) *Binding {
	return &Binding{Store: store, DetailRoute: detailRoute, Navigate: navigate}
}

// SortChanged stores the new sort and returns to page 1.
func (b *Binding) SortChanged(cols []ColumnSort) []string {
	return b.Store.Update(func(p viewstate.Params) viewstate.Params {
		spec := make(viewstate.SortSpec, 0, len(cols))
		for _, c := range cols {
			spec = append(spec, viewstate.SortKey{Field: c.Field, Desc: c.Desc})
		}
		// ParseSort drops duplicate fields.
		spec = viewstate.ParseSort(spec.Strings())
		p.Set("order", spec.Strings()...)
		p.Set("page", "1")
		return p
	})
}

// PaginationChanged stores page and page size and keeps every filter.
func (b *Binding) PaginationChanged(page, size int) []string {
	return b.Store.Update(func(p viewstate.Params) viewstate.Params {
		p.Set("page", strconv.Itoa(page))
		p.Set("page_size", strconv.Itoa(size))
		return p
	})
}

// FilterChanged sets a filter. An empty value or ViewAll clears it. When the
// value actually changed the page goes back to 1.
func (b *Binding) FilterChanged(key string, values ...string) []string {
	var clean []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && v != ViewAll {
			clean = append(clean, v)
		}
	}
	return b.Store.Update(func(p viewstate.Params) viewstate.Params {
		before := p.Clone()
		p.Set(key, clean...)
		if len(viewstate.Changed(before, p)) > 0 {
			p.Set("page", "1")
		}
		return p
	})
}

// FiltersChanged applies several filters at once with a single page reset.
func (b *Binding) FiltersChanged(filters map[string][]string) []string {
	return b.Store.Update(func(p viewstate.Params) viewstate.Params {
		before := p.Clone()
		for key, values := range filters {
			var clean []string
			for _, v := range values {
				if v = strings.TrimSpace(v); v != "" && v != ViewAll {
					clean = append(clean, v)
				}
			}
			p.Set(key, clean...)
		}
		if len(viewstate.Changed(before, p)) > 0 {
			p.Set("page", "1")
		}
		return p
	})
}

// BeginAction marks that the next selection event came from an in-row action
// button and must not navigate.
func (b *Binding) BeginAction() {
	b.actionPending = true
}

// RowSelectionChanged navigates to the row's detail route unless an in-row
// action is pending, in which case the flag is consumed instead. It reports
// whether navigation happened.
func (b *Binding) RowSelectionChanged(id string) bool {
	if b.actionPending {
		b.actionPending = false
		return false
	}
	if id == "" || b.DetailRoute == nil || b.Navigate == nil {
		return false
	}
	route := b.DetailRoute(id)
	if route == "" {
		return false
	}
	b.Navigate(route)
	return true
}
