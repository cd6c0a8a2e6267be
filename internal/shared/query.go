package shared

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Op is a comparison operator accepted in list filters.
type Op string

// Supported filter operators, matching the `field[op]=value` query syntax.
const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Filter is a single column comparison.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Sort orders results by one column.
type Sort struct {
	Column string
	Desc   bool
}

// ListQuery is an immutable descriptor of filter, sort and pagination
// parameters for a listing. Builder methods return a copy; the descriptor is
// only turned into SQL once, when the repository submits the finalized
// query.
type ListQuery struct {
	filters []Filter
	sorts   []Sort
	page    int
	size    int
}

// NewListQuery returns an empty descriptor with default pagination.
func NewListQuery() ListQuery {
	return ListQuery{page: 1, size: 100}
}

// WithFilter returns a copy with an additional column comparison.
func (q ListQuery) WithFilter(column string, op Op, value any) ListQuery {
	filters := make([]Filter, len(q.filters), len(q.filters)+1)
	copy(filters, q.filters)
	q.filters = append(filters, Filter{Column: column, Op: op, Value: value})
	return q
}

// WithSort returns a copy with an additional sort column.
func (q ListQuery) WithSort(column string, desc bool) ListQuery {
	sorts := make([]Sort, len(q.sorts), len(q.sorts)+1)
	copy(sorts, q.sorts)
	q.sorts = append(sorts, Sort{Column: column, Desc: desc})
	return q
}

// WithPage returns a copy with the given page and page size.
func (q ListQuery) WithPage(page, size int) ListQuery {
	if page > 0 {
		q.page = page
	}
	if size > 0 {
		q.size = size
	}
	return q
}

// Page returns the 1-based page number.
func (q ListQuery) Page() int { return q.page }

// Size returns the page size.
func (q ListQuery) Size() int { return q.size }

// Offset returns the row offset for the current page.
func (q ListQuery) Offset() int { return (q.page - 1) * q.size }

// Clauses compiles the descriptor into SQL fragments. The returned where
// string is empty or an AND-joined list of comparisons with placeholders
// numbered from argStart; order is a comma-joined ORDER BY body.
func (q ListQuery) Clauses(argStart int) (where string, order string, args []any) {
	var conds []string
	for _, f := range q.filters {
		op, ok := sqlOps[f.Op]
		if !ok {
			continue
		}
		conds = append(conds, fmt.Sprintf("%s %s $%d", f.Column, op, argStart))
		args = append(args, f.Value)
		argStart++
	}
	where = strings.Join(conds, " AND ")

	var orders []string
	for _, s := range q.sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		orders = append(orders, s.Column+" "+dir)
	}
	order = strings.Join(orders, ", ")
	return where, order, args
}

// ParseListQuery builds a descriptor from request query parameters. columns
// maps exposed API field names to SQL columns; parameters naming unknown
// fields are dropped. Filters use the `field[op]=value` form or a bare
// `field=value` equality; sort takes comma-separated fields with a leading
// `-` for descending. defaultSort is applied when no sort parameter is
// present.
func ParseListQuery(values url.Values, columns map[string]string, defaultSort string, defaultDesc bool) ListQuery {
	q := NewListQuery()

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case "page", "size", "sort", "limit", "fields":
			continue
		}
		field, op := key, OpEq
		if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
			field = key[:i]
			candidate := Op(key[i+1 : len(key)-1])
			if _, ok := sqlOps[candidate]; !ok {
				continue
			}
			op = candidate
		}
		column, ok := columns[field]
		if !ok {
			continue
		}
		q = q.WithFilter(column, op, vals[0])
	}

	if raw := values.Get("sort"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			desc := strings.HasPrefix(part, "-")
			part = strings.TrimPrefix(part, "-")
			if column, ok := columns[part]; ok {
				q = q.WithSort(column, desc)
			}
		}
	} else if defaultSort != "" {
		q = q.WithSort(defaultSort, defaultDesc)
	}

	page, size := 1, 100
	if parsed, err := strconv.Atoi(values.Get("page")); err == nil && parsed > 0 {
		page = parsed
	}
	if parsed, err := strconv.Atoi(values.Get("size")); err == nil && parsed > 0 {
		size = parsed
	}
	return q.WithPage(page, size)
}
