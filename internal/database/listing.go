package database

import "strings"

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

// Normalize fills in the default limit and clamps the window to max rows.
func (p Page) Normalize(max int) Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type Sort struct {
	By    string
	Order SortOrder
}

// Clause resolves the sort against a whitelist mapping API names to
// qualified columns. The "id" entry is required: it is the fallback for
// unknown names and the tie-breaker for every other column.
func (s Sort) Clause(columns map[string]string) string {
	idColumn := columns["id"]
	column, ok := columns[s.By]
	if !ok {
		column = idColumn
	}

	direction := "DESC"
	if s.Order == SortAsc {
		direction = "ASC"
	}

	if column == idColumn {
		return column + " " + direction
	}
	return column + " " + direction + ", " + idColumn + " " + direction
}

// ContainsPattern builds a case-insensitive LIKE pattern for a free text search.
func ContainsPattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}
