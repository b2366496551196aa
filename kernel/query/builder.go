// Package query synthesizes predicate-query text from filter state and UI
// interactions. It only produces predicate text; evaluating it is up to the
// backend.
package query

import (
	"strconv"
	"strings"

	"github.com/openziti/rbrowse/kernel/model"
)

const andOperator = " && "

// Quote renders s as a predicate string literal. Quotes, backslashes and
// control characters are escaped with Go string-literal rules, so the output
// unquotes back to s exactly.
func Quote(s string) string {
	return strconv.Quote(s)
}

// SearchClause converts free-text search into a predicate clause.
func SearchClause(search string) string {
	return "search(" + Quote(search) + ")"
}

// LabelClause is an equality clause on a resource label.
func LabelClause(label model.ResourceLabel) string {
	return "labels[" + Quote(label.Name) + "] == " + Quote(label.Value)
}

// And joins the non-empty clauses with &&.
func And(clauses ...string) string {
	var parts []string
	for _, c := range clauses {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, andOperator)
}

// AddLabelToQuery folds the current query, any pending search text, and an
// equality clause for label into a new query. The caller commits the result
// with SetQuery, which clears the search field; the search text survives as
// a search() clause.
func AddLabelToQuery(filter model.ResourceFilter, label model.ResourceLabel) string {
	var clauses []string
	if q := strings.TrimSpace(filter.Query); q != "" {
		if hasTopLevelOr(q) {
			q = "(" + q + ")"
		}
		clauses = append(clauses, q)
	}
	if filter.Search != "" {
		clauses = append(clauses, SearchClause(filter.Search))
	}
	clauses = append(clauses, LabelClause(label))
	return And(clauses...)
}

// hasTopLevelOr reports whether q contains || outside parentheses, brackets
// and string literals. Such a query must be grouped before && is appended.
func hasTopLevelOr(q string) bool {
	depth := 0
	for i := 0; i < len(q); i++ {
		switch c := q[i]; c {
		case '"', '`':
			for i++; i < len(q) && q[i] != c; i++ {
				if c == '"' && q[i] == '\\' {
					i++
				}
			}
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '|':
			if depth == 0 && i+1 < len(q) && q[i+1] == '|' {
				return true
			}
		}
	}
	return false
}
