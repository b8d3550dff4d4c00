package record

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ListFilter describes the catalog listing query. All filters combine
// with logical AND.
type ListFilter struct {
	Genre    string
	Artist   string
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	Limit    int
	SortBy   string
	SortDir  string
}

// sortColumns whitelists ORDER BY targets; sort input never reaches SQL
// as raw text.
var sortColumns = map[string]string{
	"title":        "title",
	"artist":       "artist",
	"price":        "price",
	"release_year": "release_year",
	"created_at":   "created_at",
	"genre":        "genre",
}

func (f ListFilter) normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "title"
	}
	if strings.EqualFold(f.SortDir, "desc") {
		f.SortDir = "DESC"
	} else {
		f.SortDir = "ASC"
	}
	return f
}

func (f ListFilter) whereClause() (string, []any) {
	var conditions []string
	var args []any

	if f.Genre != "" {
		args = append(args, f.Genre)
		conditions = append(conditions, fmt.Sprintf("genre = $%d", len(args)))
	}
	if f.Artist != "" {
		args = append(args, "%"+f.Artist+"%")
		conditions = append(conditions, fmt.Sprintf("artist ILIKE $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR artist ILIKE $%d)", len(args), len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func buildListQuery(f ListFilter) (string, []any) {
	f = f.normalized()
	where, args := f.whereClause()

	query := `SELECT id, title, artist, genre, release_year, price, stock_quantity, image_url, description, created_at, updated_at FROM records` + where
	query += fmt.Sprintf(" ORDER BY %s %s", sortColumns[f.SortBy], f.SortDir)

	args = append(args, f.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, (f.Page-1)*f.Limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return query, args
}

func buildCountQuery(f ListFilter) (string, []any) {
	where, args := f.whereClause()
	return `SELECT COUNT(*) FROM records` + where, args
}
