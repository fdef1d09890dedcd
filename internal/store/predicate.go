package store

import (
	"reflect"
	"strings"
)

// Predicates accumulates filter fragments and their bound values. Every
// fragment carries exactly one `?` placeholder; the final query is rebound
// for the driver (`$1, $2, ...` on Postgres), so fragments can be added in
// any order without tracking parameter indices.
//
// Values that are nil, nil pointers or empty strings are skipped, a missing
// filter never turns into `column = NULL` or `column = ''`.
type Predicates struct {
	clauses []string
	args    []interface{}
}

func (p *Predicates) Add(fragment string, value interface{}) *Predicates {
	v, ok := bindable(value)
	if !ok {
		return p
	}
	p.clauses = append(p.clauses, fragment)
	p.args = append(p.args, v)
	return p
}

// Where renders `WHERE a AND b ...` and the ordered argument list.
// With no predicates it renders an empty string.
func (p *Predicates) Where() (string, []interface{}) {
	if len(p.clauses) == 0 {
		return "", nil
	}
	args := make([]interface{}, len(p.args))
	copy(args, p.args)
	return "WHERE " + strings.Join(p.clauses, " AND "), args
}

func bindable(value interface{}) (interface{}, bool) {
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
		value = rv.Interface()
	}
	if rv.Kind() == reflect.String {
		if rv.Len() == 0 {
			return nil, false
		}
		return rv.String(), true
	}
	return value, true
}

// containsPattern builds a lowercased LIKE pattern for a case-insensitive
// substring search, escaping the wildcard characters of the input. Blank input
// yields "" so the predicate is skipped.
func containsPattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + escaped + "%"
}
