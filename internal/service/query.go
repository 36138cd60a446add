package service

import (
	"fmt"
	"strings"
	"time"
)

// LaunchColumns is the column list selected by every launch query, in scan order
const LaunchColumns = "id, flight_number, name, date_utc, success, details, created_at, updated_at"

// sortColumns is the only source of column names that reach ORDER BY
var sortColumns = map[SortField]string{
	SortFieldDateUTC:      "date_utc",
	SortFieldName:         "name",
	SortFieldFlightNumber: "flight_number",
	SortFieldSuccess:      "success",
}

// Dialect captures the SQL differences between storage backends
type Dialect struct {
	// Placeholder renders the n-th (1-based) bind parameter
	Placeholder func(n int) string
	// Like is the case-insensitive pattern operator
	Like string
	// Time converts a time bound to the stored representation
	Time func(time.Time) any
	// Bool converts an outcome filter to the stored representation
	Bool func(bool) any
	// FoldCase, when set, wraps a searched column in a Unicode lower-casing
	// function; the search pattern is lower-cased to match.
	FoldCase func(column string) string
}

// Query is a SQL statement and its bound arguments
type Query struct {
	SQL  string
	Args []any
}

// SortColumn maps a sort field to its column, defaulting to date_utc
func SortColumn(field SortField) string {
	if col, ok := sortColumns[field]; ok {
		return col
	}
	return "date_utc"
}

// EscapeLike escapes the LIKE wildcards in s using backslash
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// BuildListQueries builds the count and page queries for o. Every caller
// supplied value is bound; only whitelisted column names are interpolated.
func BuildListQueries(d Dialect, o *ListLaunchesOptions) (count Query, page Query) {
	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}

	if o.Success != nil {
		conds = append(conds, "success = "+bind(d.Bool(*o.Success)))
	}
	if o.FromDate != nil {
		conds = append(conds, "date_utc >= "+bind(d.Time(*o.FromDate)))
	}
	if o.ToDate != nil {
		conds = append(conds, "date_utc <= "+bind(d.Time(*o.ToDate)))
	}
	if o.Search != "" {
		pattern := "%" + EscapeLike(o.Search) + "%"
		name, details := "name", "details"
		if d.FoldCase != nil {
			name, details = d.FoldCase(name), d.FoldCase(details)
			pattern = strings.ToLower(pattern)
		}
		conds = append(conds, fmt.Sprintf(`(%s %s %s ESCAPE '\' OR %s %s %s ESCAPE '\')`,
			name, d.Like, bind(pattern), details, d.Like, bind(pattern)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	count = Query{
		SQL:  "SELECT COUNT(*) FROM launches" + where,
		Args: append([]any(nil), args...),
	}

	direction, nulls := "ASC", "NULLS FIRST"
	if o.SortOrder == SortOrderDesc {
		direction, nulls = "DESC", "NULLS LAST"
	}
	limit := o.PageSize
	if limit < 0 {
		limit = 0
	}
	// id breaks ties so equal sort keys page deterministically
	orderBy := fmt.Sprintf(" ORDER BY %s %s %s, id %s", SortColumn(o.SortBy), direction, nulls, direction)
	limitClause := fmt.Sprintf(" LIMIT %s OFFSET %s", bind(limit), bind(Offset(o.Page, o.PageSize)))

	page = Query{
		SQL:  "SELECT " + LaunchColumns + " FROM launches" + where + orderBy + limitClause,
		Args: args,
	}
	return count, page
}
