package store

import (
	"strings"
)

const defaultSortColumn = "exception_id"

// Sort is a requested ordering for exception listings, parsed from
// "<column>:<asc|desc>".
type Sort struct {
	Column string
	Desc   bool
}

// exceptionSortColumns maps the sortable fields to SQL expressions. Nothing
// outside this table ever reaches ORDER BY.
var exceptionSortColumns = map[string]string{
	"exception_id":     "d.exception_id",
	"code":             "d.code",
	"name":             "d.name",
	"risk_level":       "d.risk_level",
	"category_id":      "d.category_id",
	"is_active":        "d.is_active",
	"created_at":       "d.created_at",
	"assignees_active": "COALESCE(a.assignees_active, 0)",
	"last_assigned_at": "a.last_assigned_at",
	"tickets_count":    "COALESCE(t.tickets_count, 0)",
}

// ParseSort never fails: only the literal "desc" is descending, anything
// else is ascending.
func ParseSort(raw string) Sort {
	column, dir, _ := strings.Cut(strings.TrimSpace(raw), ":")
	return Sort{
		Column: strings.TrimSpace(column),
		Desc:   strings.TrimSpace(dir) == "desc",
	}
}

// Resolve returns the SQL expression and direction for the sort. Unknown
// columns fall back to the default column in ascending order.
func (s Sort) Resolve() (string, bool) {
	expr, ok := exceptionSortColumns[s.Column]
	if !ok {
		return exceptionSortColumns[defaultSortColumn], false
	}
	return expr, s.Desc
}

func (s Sort) orderBy() string {
	expr, desc := s.Resolve()
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	clause := "ORDER BY " + expr + " " + dir
	if expr != exceptionSortColumns[defaultSortColumn] {
		clause += ", d.exception_id ASC"
	}
	return clause
}
